package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/search"
	documentuc "github.com/kailas-cloud/verdex/internal/usecase/document"
	schemauc "github.com/kailas-cloud/verdex/internal/usecase/schema"
)

type mockSchemaService struct {
	registerFn     func(ctx context.Context, in domschema.Input) (schemauc.RegisterResult, error)
	createTagFn    func(ctx context.Context, docType, slug string, fields []string, vis registry.Visibility, ident domain.Identity) (registry.Tag, error)
	createBranchFn func(ctx context.Context, docType, slug string, fields []string, ident domain.Identity) (registry.Branch, error)
}

func (m *mockSchemaService) Register(ctx context.Context, in domschema.Input) (schemauc.RegisterResult, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return schemauc.RegisterResult{}, nil
}

func (m *mockSchemaService) CreateTag(ctx context.Context, docType, slug string, fields []string,
	vis registry.Visibility, ident domain.Identity) (registry.Tag, error) {
	if m.createTagFn != nil {
		return m.createTagFn(ctx, docType, slug, fields, vis, ident)
	}
	return registry.Tag{}, nil
}

func (m *mockSchemaService) CreateBranch(ctx context.Context, docType, slug string, fields []string,
	ident domain.Identity) (registry.Branch, error) {
	if m.createBranchFn != nil {
		return m.createBranchFn(ctx, docType, slug, fields, ident)
	}
	return registry.Branch{}, nil
}

type mockDocumentService struct {
	saveFn    func(ctx context.Context, docType string, doc domain.LogicalDocument, tag string, ident domain.Identity) (documentuc.SaveResult, error)
	getFn     func(ctx context.Context, docType, id, tag string, ident domain.Identity) (domain.LogicalDocument, error)
	searchFn  func(ctx context.Context, docType string, payload search.Payload, tag string, ident domain.Identity) (documentuc.SearchResult, error)
	deleteFn  func(ctx context.Context, docType, id string) error
	refreshFn func(ctx context.Context, docType string) error
}

func (m *mockDocumentService) Save(ctx context.Context, docType string, doc domain.LogicalDocument,
	tag string, ident domain.Identity) (documentuc.SaveResult, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, docType, doc, tag, ident)
	}
	return documentuc.SaveResult{}, nil
}

func (m *mockDocumentService) Get(ctx context.Context, docType, id, tag string, ident domain.Identity) (domain.LogicalDocument, error) {
	if m.getFn != nil {
		return m.getFn(ctx, docType, id, tag, ident)
	}
	return domain.LogicalDocument{}, nil
}

func (m *mockDocumentService) Search(ctx context.Context, docType string, payload search.Payload,
	tag string, ident domain.Identity) (documentuc.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, docType, payload, tag, ident)
	}
	return documentuc.SearchResult{}, nil
}

func (m *mockDocumentService) Delete(ctx context.Context, docType, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, docType, id)
	}
	return nil
}

func (m *mockDocumentService) Refresh(ctx context.Context, docType string) error {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, docType)
	}
	return nil
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(context.Context) error { return m.err }

func newTestRouter(t *testing.T, schemas *mockSchemaService, documents *mockDocumentService) http.Handler {
	t.Helper()
	srv := NewServer(schemas, documents, &mockPinger{}, zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func doRequest(t *testing.T, handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
