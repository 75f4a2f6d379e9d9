package schema

import (
	"context"

	"github.com/kailas-cloud/verdex/internal/domain/registry"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/store"
)

// Compiler turns a raw schema into its compiled artefacts.
type Compiler interface {
	Compile(ctx context.Context, in domschema.Input) (domschema.Output, error)
}

// Registry persists field versions, tags and branches.
type Registry interface {
	SaveVersions(ctx context.Context, versions []registry.FieldVersion) error
	SaveTag(ctx context.Context, tag registry.Tag) error
	SaveBranch(ctx context.Context, branch registry.Branch) error
}

// Store writes schema artefacts to the document store.
type Store interface {
	EnsureIndex(ctx context.Context, index string, mapping map[string]any) error
	Bulk(ctx context.Context, ops []store.BulkOp) error
	Get(ctx context.Context, index, id string) (map[string]any, error)
	IndexFor(docType string) string
}

// Invalidator drops cached version resolutions after a registration.
type Invalidator interface {
	Invalidate(ctx context.Context, docType string) error
}
