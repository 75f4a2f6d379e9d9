// Package chi is the HTTP transport: request decoding, identity extraction
// and domain-error mapping around the schema and document services.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
	"github.com/kailas-cloud/verdex/internal/logger"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/search"
	documentuc "github.com/kailas-cloud/verdex/internal/usecase/document"
	schemauc "github.com/kailas-cloud/verdex/internal/usecase/schema"
)

// Identity headers set by the gateway in front of the service.
const (
	headerUserID = "X-User-Id"
	headerGroups = "X-User-Groups"
)

// ErrorCode classifies an API error for clients.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeNotFound         ErrorCode = "not_found"
	CodeDocumentNotFound ErrorCode = "document_not_found"
	CodeSchemaNotFound   ErrorCode = "schema_not_found"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeInvalidSchema    ErrorCode = "invalid_schema"
	CodeAmbiguousField   ErrorCode = "ambiguous_field"
	CodeTagForbidden     ErrorCode = "tag_forbidden"
	CodeStoreError       ErrorCode = "store_error"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the error body every endpoint returns.
type ErrorResponse struct {
	Code    ErrorCode           `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Pinger checks a dependency for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SchemaService is the schema use case surface the transport consumes (ISP).
type SchemaService interface {
	Register(ctx context.Context, in domschema.Input) (schemauc.RegisterResult, error)
	CreateTag(ctx context.Context, docType, slug string, fields []string,
		vis registry.Visibility, ident domain.Identity) (registry.Tag, error)
	CreateBranch(ctx context.Context, docType, slug string, fields []string,
		ident domain.Identity) (registry.Branch, error)
}

// DocumentService is the document use case surface the transport consumes.
type DocumentService interface {
	Save(ctx context.Context, docType string, doc domain.LogicalDocument,
		tag string, ident domain.Identity) (documentuc.SaveResult, error)
	Get(ctx context.Context, docType, id, tag string, ident domain.Identity) (domain.LogicalDocument, error)
	Search(ctx context.Context, docType string, payload search.Payload,
		tag string, ident domain.Identity) (documentuc.SearchResult, error)
	Delete(ctx context.Context, docType, id string) error
	Refresh(ctx context.Context, docType string) error
}

// Server routes HTTP requests to the use cases.
type Server struct {
	schemas       SchemaService
	documents     DocumentService
	health        Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(schemas SchemaService, documents DocumentService, health Pinger, logger *zap.Logger) *Server {
	s := &Server{
		schemas:   schemas,
		documents: documents,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrSchemaNotFound, http.StatusNotFound, CodeSchemaNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, CodeInvalidSchema),
		sentinelHandler(domain.ErrAmbiguousField, http.StatusConflict, CodeAmbiguousField),
		sentinelHandler(domain.ErrTagForbidden, http.StatusForbidden, CodeTagForbidden),
		sentinelHandler(domain.ErrStore, http.StatusBadGateway, CodeStoreError),
	}
	return s
}

// Routes mounts every endpoint on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/schemas/{docType}", s.handleRegisterSchema)
		r.Post("/schemas/{docType}/tags", s.handleCreateTag)
		r.Post("/schemas/{docType}/branches", s.handleCreateBranch)

		r.Route("/docs/{docType}", func(r chi.Router) {
			r.Post("/", s.handleSaveDocument)
			r.Post("/search", s.handleSearch)
			r.Post("/refresh", s.handleRefresh)
			r.Put("/{id}", s.handleUpsertDocument)
			r.Get("/{id}", s.handleGetDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRegisterSchema handles POST /v1/schemas/{docType}.
func (s *Server) handleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "docType")
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.schemas.Register(r.Context(), domschema.Input{
		DocType:  docType,
		Raw:      raw,
		Identity: identityFrom(r),
		Tag:      r.URL.Query().Get("tag"),
		Branch:   r.URL.Query().Get("branch"),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type createTagRequest struct {
	Slug       string              `json:"slug"`
	Fields     []string            `json:"fields"`
	Visibility registry.Visibility `json:"visibility"`
}

// handleCreateTag handles POST /v1/schemas/{docType}/tags.
func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "docType")
	var req createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Slug == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Tag slug is required")
		return
	}

	tag, err := s.schemas.CreateTag(r.Context(), docType, req.Slug, req.Fields, req.Visibility, identityFrom(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

type createBranchRequest struct {
	Slug   string   `json:"slug"`
	Fields []string `json:"fields"`
}

// handleCreateBranch handles POST /v1/schemas/{docType}/branches.
func (s *Server) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	docType := chi.URLParam(r, "docType")
	var req createBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Slug == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Branch slug is required")
		return
	}

	branch, err := s.schemas.CreateBranch(r.Context(), docType, req.Slug, req.Fields, identityFrom(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, branch)
}

// handleSaveDocument handles POST /v1/docs/{docType}.
func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	s.saveDocument(w, r, "")
}

// handleUpsertDocument handles PUT /v1/docs/{docType}/{id}.
func (s *Server) handleUpsertDocument(w http.ResponseWriter, r *http.Request) {
	s.saveDocument(w, r, chi.URLParam(r, "id"))
}

func (s *Server) saveDocument(w http.ResponseWriter, r *http.Request, id string) {
	docType := chi.URLParam(r, "docType")
	var doc domain.LogicalDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if id != "" {
		doc[domain.IDKey] = id
	}

	res, err := s.documents.Save(r.Context(), docType, doc, r.URL.Query().Get("tag"), identityFrom(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// handleGetDocument handles GET /v1/docs/{docType}/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(),
		chi.URLParam(r, "docType"), chi.URLParam(r, "id"),
		r.URL.Query().Get("tag"), identityFrom(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument handles DELETE /v1/docs/{docType}/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "docType"), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSearch handles POST /v1/docs/{docType}/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var payload search.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.documents.Search(r.Context(), chi.URLParam(r, "docType"),
		payload, r.URL.Query().Get("tag"), identityFrom(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRefresh handles POST /v1/docs/{docType}/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Refresh(r.Context(), chi.URLParam(r, "docType")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// identityFrom reads the caller identity from gateway headers.
func identityFrom(r *http.Request) domain.Identity {
	ident := domain.Identity{UserID: r.Header.Get(headerUserID)}
	if groups := r.Header.Get(headerGroups); groups != "" {
		for _, g := range strings.Split(groups, ",") {
			if g = strings.TrimSpace(g); g != "" {
				ident.Groups = append(ident.Groups, g)
			}
		}
	}
	return ident
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Prefer the request-scoped logger so the line carries request_id.
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrSchemaNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidSchema,
		domain.ErrAmbiguousField,
		domain.ErrTagForbidden,
		domain.ErrStore,
		domain.ErrValidation,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// validationHandler unpacks per-field messages from a rejected document.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Code:    CodeValidationFailed,
		Message: msg,
		Fields:  verr.Fields,
	})
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
