package schema

import (
	"context"

	"github.com/kailas-cloud/verdex/internal/domain/registry"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/store"
)

type mockCompiler struct {
	out   domschema.Output
	err   error
	calls int
	last  domschema.Input
}

func (m *mockCompiler) Compile(_ context.Context, in domschema.Input) (domschema.Output, error) {
	m.calls++
	m.last = in
	return m.out, m.err
}

type mockRegistry struct {
	saveVersionsFn func(ctx context.Context, versions []registry.FieldVersion) error
	saveTagFn      func(ctx context.Context, tag registry.Tag) error
	saveBranchFn   func(ctx context.Context, branch registry.Branch) error
}

func (m *mockRegistry) SaveVersions(ctx context.Context, versions []registry.FieldVersion) error {
	if m.saveVersionsFn != nil {
		return m.saveVersionsFn(ctx, versions)
	}
	return nil
}

func (m *mockRegistry) SaveTag(ctx context.Context, tag registry.Tag) error {
	if m.saveTagFn != nil {
		return m.saveTagFn(ctx, tag)
	}
	return nil
}

func (m *mockRegistry) SaveBranch(ctx context.Context, branch registry.Branch) error {
	if m.saveBranchFn != nil {
		return m.saveBranchFn(ctx, branch)
	}
	return nil
}

type mockStore struct {
	ensureIndexFn func(ctx context.Context, index string, mapping map[string]any) error
	bulkFn        func(ctx context.Context, ops []store.BulkOp) error
	getFn         func(ctx context.Context, index, id string) (map[string]any, error)
}

func (m *mockStore) EnsureIndex(ctx context.Context, index string, mapping map[string]any) error {
	if m.ensureIndexFn != nil {
		return m.ensureIndexFn(ctx, index, mapping)
	}
	return nil
}

func (m *mockStore) Bulk(ctx context.Context, ops []store.BulkOp) error {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, ops)
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, index, id string) (map[string]any, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, id)
	}
	return nil, nil
}

func (m *mockStore) IndexFor(docType string) string { return "verdex-" + docType }

type mockInvalidator struct {
	docTypes []string
	err      error
}

func (m *mockInvalidator) Invalidate(_ context.Context, docType string) error {
	m.docTypes = append(m.docTypes, docType)
	return m.err
}
