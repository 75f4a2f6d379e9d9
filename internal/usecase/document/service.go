// Package document is the document CRUD and search use case. Writes run the
// full pipeline: load definition, batch every store-side validation into one
// multi-search, validate, project to physical shape, persist.
package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/field"
	"github.com/kailas-cloud/verdex/internal/domain/pattern"
	"github.com/kailas-cloud/verdex/internal/metrics"
	"github.com/kailas-cloud/verdex/internal/projection"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/search"
	"github.com/kailas-cloud/verdex/internal/store"
)

// Service handles document CRUD over the versioned projection.
type Service struct {
	schemas   SchemaReader
	projector Projector
	store     Store
	logger    *zap.Logger
	newID     func() string
}

// New creates a document service.
func New(schemas SchemaReader, projector Projector, s Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		schemas:   schemas,
		projector: projector,
		store:     s,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// SaveResult reports a completed write.
type SaveResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// Save validates and persists a logical document. All store-side checks the
// document needs run as one multi-search before validation; a document with
// no link or uniqueness constraints costs no extra round trip.
func (s *Service) Save(ctx context.Context, docType string, doc domain.LogicalDocument,
	tag string, ident domain.Identity) (SaveResult, error) {

	def, err := s.schemas.Definition(ctx, docType)
	if err != nil {
		return SaveResult{}, err
	}
	keys, err := s.projector.Keys(ctx, docType, tag, ident)
	if err != nil {
		return SaveResult{}, err
	}

	id, _ := doc[domain.IDKey].(string)
	created := id == ""
	if created {
		id = s.newID()
	}

	ext, err := s.resolvePatterns(ctx, def, doc, keys)
	if err != nil {
		return SaveResult{}, err
	}

	if result := def.Validate(doc, ext); !result.OK() {
		metrics.DocumentValidationsTotal.WithLabelValues(docType, "rejected").Inc()
		return SaveResult{}, &domain.ValidationError{Fields: result.Errors}
	}
	metrics.DocumentValidationsTotal.WithLabelValues(docType, "ok").Inc()

	physical := s.projector.ProjectPhysical(def.PhysicalValues(doc), keys)
	physical[domain.IDKey] = id

	if err := s.store.Bulk(ctx, []store.BulkOp{{
		Action: store.ActionIndex,
		Index:  s.store.IndexFor(docType),
		ID:     id,
		Doc:    physical,
	}}); err != nil {
		return SaveResult{}, fmt.Errorf("persist %s/%s: %w", docType, id, err)
	}

	s.logger.Info("Document saved",
		zap.String("doc_type", docType), zap.String("id", id), zap.Bool("created", created))
	return SaveResult{ID: id, Created: created}, nil
}

// resolvePatterns batches every pattern the document needs into one
// multi-search and maps each slice back to its verdict key.
func (s *Service) resolvePatterns(ctx context.Context, def *domschema.Definition,
	doc domain.LogicalDocument, keys projection.KeyMap) (field.ExternalResults, error) {

	patterns := def.Patterns(doc, func(docType, fieldName string) string {
		if docType == def.DocType {
			return keys.Key(fieldName, fieldName)
		}
		// Foreign paths resolve against version 1; link existence probes
		// address the unversioned id and never reach this fallback.
		return domain.PhysicalKey(fieldName, 1)
	})
	if len(patterns) == 0 {
		return nil, nil
	}

	specs := make([]store.SearchSpec, 0, len(patterns))
	for _, p := range patterns {
		q := p.Pattern.BuildQuery(s.store.IndexFor(p.Index))
		specs = append(specs, store.SearchSpec{Index: q.Index, Body: q.Body})
	}
	results, err := s.store.MultiSearch(ctx, specs)
	if err != nil {
		return nil, fmt.Errorf("resolve validation patterns: %w", err)
	}

	ext := make(field.ExternalResults, len(patterns))
	for i, p := range patterns {
		ext[p.Key] = p.Pattern.Validate(pattern.Result{Total: results[i].Total})
	}
	return ext, nil
}

// Get loads one document and projects it to logical shape. A tag binds the
// projection to the tag's pinned versions; without one the newest version of
// each field wins.
func (s *Service) Get(ctx context.Context, docType, id, tag string, ident domain.Identity) (domain.LogicalDocument, error) {
	source, err := s.store.Get(ctx, s.store.IndexFor(docType), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", docType, id, domain.ErrDocumentNotFound)
		}
		return nil, err
	}
	return s.toLogical(ctx, docType, tag, ident, source)
}

// Search runs a structured query and projects every hit to logical shape.
type SearchResult struct {
	Total int                      `json:"total"`
	Docs  []domain.LogicalDocument `json:"docs"`
}

func (s *Service) Search(ctx context.Context, docType string, payload search.Payload,
	tag string, ident domain.Identity) (SearchResult, error) {

	target, err := s.targetVersions(ctx, docType, tag, ident)
	if err != nil {
		return SearchResult{}, err
	}

	result, err := s.store.Search(ctx, s.store.IndexFor(docType), search.Build(payload))
	if err != nil {
		return SearchResult{}, fmt.Errorf("search %s: %w", docType, err)
	}

	docs := make([]domain.LogicalDocument, 0, len(result.Hits))
	for _, hit := range result.Hits {
		source := hit.Source
		if source == nil {
			source = map[string]any{}
		}
		if _, ok := source[domain.IDKey]; !ok {
			source[domain.IDKey] = hit.ID
		}
		logical, err := s.projector.ToLogical(source, target)
		if err != nil {
			return SearchResult{}, fmt.Errorf("project hit %s: %w", hit.ID, err)
		}
		docs = append(docs, logical)
	}
	return SearchResult{Total: result.Total, Docs: docs}, nil
}

// Delete removes one document.
func (s *Service) Delete(ctx context.Context, docType, id string) error {
	if err := s.store.Bulk(ctx, []store.BulkOp{{
		Action: store.ActionDelete,
		Index:  s.store.IndexFor(docType),
		ID:     id,
	}}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", docType, id, err)
	}
	s.logger.Info("Document deleted", zap.String("doc_type", docType), zap.String("id", id))
	return nil
}

// Refresh makes prior writes to the doc type searchable.
func (s *Service) Refresh(ctx context.Context, docType string) error {
	return s.store.Refresh(ctx, s.store.IndexFor(docType))
}

func (s *Service) toLogical(ctx context.Context, docType, tag string, ident domain.Identity,
	source map[string]any) (domain.LogicalDocument, error) {

	target, err := s.targetVersions(ctx, docType, tag, ident)
	if err != nil {
		return nil, err
	}
	return s.projector.ToLogical(source, target)
}

// targetVersions returns nil without a tag: untagged reads take the newest
// version of every field instead of a pinned set.
func (s *Service) targetVersions(ctx context.Context, docType, tag string, ident domain.Identity) (domain.VersionSet, error) {
	if tag == "" {
		return nil, nil
	}
	return s.projector.TargetVersions(ctx, docType, tag, ident)
}
