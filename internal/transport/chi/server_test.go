package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/search"
	documentuc "github.com/kailas-cloud/verdex/internal/usecase/document"
	schemauc "github.com/kailas-cloud/verdex/internal/usecase/schema"
)

func TestRegisterSchema(t *testing.T) {
	var gotInput domschema.Input
	schemas := &mockSchemaService{registerFn: func(_ context.Context, in domschema.Input) (schemauc.RegisterResult, error) {
		gotInput = in
		return schemauc.RegisterResult{DocType: in.DocType, Fields: 1, Versions: 1}, nil
	}}
	router := newTestRouter(t, schemas, &mockDocumentService{})

	body := `{"fields":{"email":{"type":"string"}}}`
	req := httptest.NewRequest("POST", "/v1/schemas/users?tag=beta", strings.NewReader(body))
	req.Header.Set(headerUserID, "alice")
	req.Header.Set(headerGroups, "staff, admins")
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if gotInput.DocType != "users" || gotInput.Tag != "beta" {
		t.Errorf("input = %+v", gotInput)
	}
	if gotInput.Identity.UserID != "alice" || len(gotInput.Identity.Groups) != 2 {
		t.Errorf("identity = %+v", gotInput.Identity)
	}
	if _, ok := gotInput.Raw["fields"]; !ok {
		t.Errorf("raw = %v", gotInput.Raw)
	}
}

func TestRegisterSchemaBadBody(t *testing.T) {
	router := newTestRouter(t, &mockSchemaService{}, &mockDocumentService{})
	req := httptest.NewRequest("POST", "/v1/schemas/users", strings.NewReader("{nope"))
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRegisterSchemaInvalid(t *testing.T) {
	schemas := &mockSchemaService{registerFn: func(context.Context, domschema.Input) (schemauc.RegisterResult, error) {
		return schemauc.RegisterResult{}, domain.ErrInvalidSchema
	}}
	router := newTestRouter(t, schemas, &mockDocumentService{})

	req := httptest.NewRequest("POST", "/v1/schemas/users", strings.NewReader(`{}`))
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Code != CodeInvalidSchema {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestCreateTag(t *testing.T) {
	schemas := &mockSchemaService{createTagFn: func(_ context.Context, docType, slug string, fields []string,
		vis registry.Visibility, ident domain.Identity) (registry.Tag, error) {
		return registry.Tag{Slug: slug, DocType: docType, Fields: fields, Visibility: vis, CreatedBy: ident.UserID}, nil
	}}
	router := newTestRouter(t, schemas, &mockDocumentService{})

	body := `{"slug":"stable","fields":["users__email__v2"],"visibility":{"groups":["staff"]}}`
	req := httptest.NewRequest("POST", "/v1/schemas/users/tags", strings.NewReader(body))
	req.Header.Set(headerUserID, "alice")
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var tag registry.Tag
	_ = json.NewDecoder(rr.Body).Decode(&tag)
	if tag.Slug != "stable" || tag.CreatedBy != "alice" || len(tag.Visibility.Groups) != 1 {
		t.Errorf("tag = %+v", tag)
	}
}

func TestCreateTagRequiresSlug(t *testing.T) {
	router := newTestRouter(t, &mockSchemaService{}, &mockDocumentService{})
	req := httptest.NewRequest("POST", "/v1/schemas/users/tags", strings.NewReader(`{"fields":[]}`))
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSaveDocumentCreate(t *testing.T) {
	documents := &mockDocumentService{saveFn: func(_ context.Context, docType string, doc domain.LogicalDocument,
		tag string, _ domain.Identity) (documentuc.SaveResult, error) {
		if docType != "articles" || doc["title"] != "hello" {
			t.Errorf("save args: %s %v", docType, doc)
		}
		return documentuc.SaveResult{ID: "doc-1", Created: true}, nil
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	req := httptest.NewRequest("POST", "/v1/docs/articles/", strings.NewReader(`{"title":"hello"}`))
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var res documentuc.SaveResult
	_ = json.NewDecoder(rr.Body).Decode(&res)
	if res.ID != "doc-1" || !res.Created {
		t.Errorf("result = %+v", res)
	}
}

func TestUpsertDocumentInjectsPathID(t *testing.T) {
	documents := &mockDocumentService{saveFn: func(_ context.Context, _ string, doc domain.LogicalDocument,
		_ string, _ domain.Identity) (documentuc.SaveResult, error) {
		if doc[domain.IDKey] != "doc-9" {
			t.Errorf("doc id = %v", doc[domain.IDKey])
		}
		return documentuc.SaveResult{ID: "doc-9", Created: false}, nil
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	req := httptest.NewRequest("PUT", "/v1/docs/articles/doc-9", strings.NewReader(`{"title":"hi"}`))
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSaveDocumentValidationFailure(t *testing.T) {
	documents := &mockDocumentService{saveFn: func(context.Context, string, domain.LogicalDocument,
		string, domain.Identity) (documentuc.SaveResult, error) {
		return documentuc.SaveResult{}, &domain.ValidationError{
			Fields: map[string][]string{"title": {"is required"}},
		}
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	req := httptest.NewRequest("POST", "/v1/docs/articles/", strings.NewReader(`{}`))
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Code != CodeValidationFailed || len(resp.Fields["title"]) != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetDocumentWithTag(t *testing.T) {
	documents := &mockDocumentService{getFn: func(_ context.Context, docType, id, tag string,
		ident domain.Identity) (domain.LogicalDocument, error) {
		if docType != "articles" || id != "doc-1" || tag != "stable" || ident.UserID != "bob" {
			t.Errorf("get args: %s %s %s %+v", docType, id, tag, ident)
		}
		return domain.LogicalDocument{"id": "doc-1", "title": "hello"}, nil
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	req := httptest.NewRequest("GET", "/v1/docs/articles/doc-1?tag=stable", http.NoBody)
	req.Header.Set(headerUserID, "bob")
	rr := doRequest(t, router, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var doc domain.LogicalDocument
	_ = json.NewDecoder(rr.Body).Decode(&doc)
	if doc["title"] != "hello" {
		t.Errorf("doc = %v", doc)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	documents := &mockDocumentService{getFn: func(context.Context, string, string, string,
		domain.Identity) (domain.LogicalDocument, error) {
		return nil, domain.ErrDocumentNotFound
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	rr := doRequest(t, router, httptest.NewRequest("GET", "/v1/docs/articles/ghost", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGetDocumentForbiddenTag(t *testing.T) {
	documents := &mockDocumentService{getFn: func(context.Context, string, string, string,
		domain.Identity) (domain.LogicalDocument, error) {
		return nil, domain.ErrTagForbidden
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	rr := doRequest(t, router, httptest.NewRequest("GET", "/v1/docs/articles/doc-1?tag=internal", http.NoBody))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGetDocumentAmbiguousConflict(t *testing.T) {
	documents := &mockDocumentService{getFn: func(context.Context, string, string, string,
		domain.Identity) (domain.LogicalDocument, error) {
		return nil, &domain.AmbiguousFieldError{Field: "title", Versions: []int{1, 2}}
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	rr := doRequest(t, router, httptest.NewRequest("GET", "/v1/docs/articles/doc-1?tag=bad", http.NoBody))
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSearchDocuments(t *testing.T) {
	documents := &mockDocumentService{searchFn: func(_ context.Context, docType string, payload search.Payload,
		_ string, _ domain.Identity) (documentuc.SearchResult, error) {
		if docType != "articles" || payload.Query != "generics" || payload.Size != 5 {
			t.Errorf("search args: %s %+v", docType, payload)
		}
		return documentuc.SearchResult{Total: 1, Docs: []domain.LogicalDocument{{"id": "a"}}}, nil
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	body := `{"query":"generics","size":5}`
	rr := doRequest(t, router, httptest.NewRequest("POST", "/v1/docs/articles/search", strings.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var res documentuc.SearchResult
	_ = json.NewDecoder(rr.Body).Decode(&res)
	if res.Total != 1 || len(res.Docs) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestDeleteDocument(t *testing.T) {
	var deleted string
	documents := &mockDocumentService{deleteFn: func(_ context.Context, _, id string) error {
		deleted = id
		return nil
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	rr := doRequest(t, router, httptest.NewRequest("DELETE", "/v1/docs/articles/doc-1", http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if deleted != "doc-1" {
		t.Errorf("deleted = %s", deleted)
	}
}

func TestRefreshDocs(t *testing.T) {
	var refreshed string
	documents := &mockDocumentService{refreshFn: func(_ context.Context, docType string) error {
		refreshed = docType
		return nil
	}}
	router := newTestRouter(t, &mockSchemaService{}, documents)

	rr := doRequest(t, router, httptest.NewRequest("POST", "/v1/docs/articles/refresh", http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if refreshed != "articles" {
		t.Errorf("refreshed = %s", refreshed)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &mockSchemaService{}, &mockDocumentService{})
	rr := doRequest(t, router, httptest.NewRequest("GET", "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
