package document

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
	"github.com/kailas-cloud/verdex/internal/projection"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/store"
)

// mockSchemas serves one pre-built definition.
type mockSchemas struct {
	def *domschema.Definition
	err error
}

func (m *mockSchemas) Definition(context.Context, string) (*domschema.Definition, error) {
	return m.def, m.err
}

// staticResolver backs a real projection engine with fixed versions.
type staticResolver struct {
	versions []registry.FieldVersion
	err      error
}

func (r *staticResolver) ActiveVersions(context.Context, string, string, domain.Identity) ([]registry.FieldVersion, error) {
	return r.versions, r.err
}

type mockStore struct {
	getFn         func(ctx context.Context, index, id string) (map[string]any, error)
	searchFn      func(ctx context.Context, index string, query map[string]any) (*store.SearchResult, error)
	multiSearchFn func(ctx context.Context, specs []store.SearchSpec) ([]store.SearchResult, error)
	bulkFn        func(ctx context.Context, ops []store.BulkOp) error
	refreshFn     func(ctx context.Context, index string) error

	multiCalls int
	bulkOps    []store.BulkOp
}

func (m *mockStore) Get(ctx context.Context, index, id string) (map[string]any, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) Search(ctx context.Context, index string, query map[string]any) (*store.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, query)
	}
	return &store.SearchResult{}, nil
}

func (m *mockStore) MultiSearch(ctx context.Context, specs []store.SearchSpec) ([]store.SearchResult, error) {
	m.multiCalls++
	if m.multiSearchFn != nil {
		return m.multiSearchFn(ctx, specs)
	}
	results := make([]store.SearchResult, len(specs))
	return results, nil
}

func (m *mockStore) Bulk(ctx context.Context, ops []store.BulkOp) error {
	m.bulkOps = append(m.bulkOps, ops...)
	if m.bulkFn != nil {
		return m.bulkFn(ctx, ops)
	}
	return nil
}

func (m *mockStore) Refresh(ctx context.Context, index string) error {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, index)
	}
	return nil
}

func (m *mockStore) IndexFor(docType string) string { return "verdex-" + docType }

func mustDefinition(payload map[string]any) *domschema.Definition {
	def, err := domschema.Load("articles", payload, zap.NewNop())
	if err != nil {
		panic(err)
	}
	return def
}

func newTestService(def *domschema.Definition, versions []registry.FieldVersion, st *mockStore) *Service {
	engine := projection.New(&staticResolver{versions: versions}, zap.NewNop())
	svc := New(&mockSchemas{def: def}, engine, st, zap.NewNop())
	n := 0
	svc.newID = func() string { n++; return "doc-1" }
	return svc
}
