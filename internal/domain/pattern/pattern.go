// Package pattern implements the deferred-validation protocol: batchable
// count-style store predicates used for uniqueness and existence checks.
//
// A field validator never performs I/O. The caller collects every pattern a
// document needs, issues exactly one multi-search, and feeds each pattern's
// Validate verdict back into the validators keyed by the pattern name.
package pattern

// Result is the slice of a batched multi-search response a single pattern
// interprets.
type Result struct {
	Total int
}

// Query is a count-style lookup against one index.
type Query struct {
	Index string
	Body  map[string]any
}

// Pattern is a deferred store-side predicate.
type Pattern interface {
	BuildQuery(index string) Query
	Validate(res Result) bool
}

// Named binds a pattern to its result key and target index for batching.
type Named struct {
	Key     string
	Index   string
	Pattern Pattern
}

// Exists is satisfied when at least one document matches path=value.
type Exists struct {
	Path  string
	Value any
}

// BuildQuery returns a hit-count query filtering on the dotted path.
func (e Exists) BuildQuery(index string) Query {
	return Query{
		Index: index,
		Body: map[string]any{
			"size": 0,
			"query": map[string]any{
				"bool": map[string]any{
					"filter": []any{
						map[string]any{"term": map[string]any{e.Path: e.Value}},
					},
				},
			},
		},
	}
}

// Validate reports whether a match was found.
func (e Exists) Validate(res Result) bool { return res.Total >= 1 }

// NotExists is satisfied when no document matches path=value. It builds the
// same query as Exists; only the sense of the verdict differs.
type NotExists struct {
	Path  string
	Value any
}

// BuildQuery returns a hit-count query filtering on the dotted path.
func (n NotExists) BuildQuery(index string) Query {
	return Exists{Path: n.Path, Value: n.Value}.BuildQuery(index)
}

// Validate reports whether the constraint holds, i.e. nothing matched.
func (n NotExists) Validate(res Result) bool { return res.Total == 0 }
