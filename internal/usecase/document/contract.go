package document

import (
	"context"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/projection"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/store"
)

// SchemaReader loads compiled definitions.
type SchemaReader interface {
	Definition(ctx context.Context, docType string) (*domschema.Definition, error)
}

// Projector maps documents between logical and physical shape.
type Projector interface {
	Keys(ctx context.Context, docType, tag string, ident domain.Identity) (projection.KeyMap, error)
	TargetVersions(ctx context.Context, docType, tag string, ident domain.Identity) (domain.VersionSet, error)
	ProjectPhysical(doc domain.LogicalDocument, keys projection.KeyMap) domain.PhysicalDocument
	ToLogical(doc domain.PhysicalDocument, target domain.VersionSet) (domain.LogicalDocument, error)
}

// Store is the consumer interface for document persistence (ISP).
type Store interface {
	Get(ctx context.Context, index, id string) (map[string]any, error)
	Search(ctx context.Context, index string, query map[string]any) (*store.SearchResult, error)
	MultiSearch(ctx context.Context, specs []store.SearchSpec) ([]store.SearchResult, error)
	Bulk(ctx context.Context, ops []store.BulkOp) error
	Refresh(ctx context.Context, index string) error
	IndexFor(docType string) string
}
