// Package store is the client for the remote search/index document store.
// All calls are synchronous JSON-over-HTTP request/response; non-2xx or
// malformed responses surface as *Error wrapping domain.ErrStore. The layer
// performs no retries; retry policy belongs to the transport above.
package store

// Op names for error context.
const (
	OpGet         = "get"
	OpEnsureIndex = "ensure_index"
	OpSearch      = "search"
	OpMultiSearch = "msearch"
	OpBulk        = "bulk"
	OpRefresh     = "refresh"
	OpPing        = "ping"
)

// SearchSpec is one sub-query of a batched multi-search.
type SearchSpec struct {
	Index string
	Body  map[string]any
}

// Hit is one search match.
type Hit struct {
	ID     string
	Source map[string]any
}

// SearchResult is the parsed result of one search or multi-search slice.
type SearchResult struct {
	Total int
	Hits  []Hit
}

// Bulk op actions.
const (
	ActionIndex  = "index"
	ActionDelete = "delete"
)

// BulkOp is one create/update/delete operation of a bulk write.
type BulkOp struct {
	Action string
	Index  string
	ID     string
	Doc    map[string]any
}
