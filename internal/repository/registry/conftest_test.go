package registry

import (
	"context"

	"github.com/kailas-cloud/verdex/internal/store"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn    func(ctx context.Context, index, id string) (map[string]any, error)
	searchFn func(ctx context.Context, index string, query map[string]any) (*store.SearchResult, error)
	bulkFn   func(ctx context.Context, ops []store.BulkOp) error
}

func (m *mockStore) Get(ctx context.Context, index, id string) (map[string]any, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, id)
	}
	return nil, nil
}

func (m *mockStore) Search(ctx context.Context, index string, query map[string]any) (*store.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, query)
	}
	return &store.SearchResult{}, nil
}

func (m *mockStore) Bulk(ctx context.Context, ops []store.BulkOp) error {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, ops)
	}
	return nil
}

func (m *mockStore) IndexFor(docType string) string { return "verdex-" + docType }
