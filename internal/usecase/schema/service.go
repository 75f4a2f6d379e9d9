// Package schema is the registration use case: compile a raw schema, create
// or extend its index, persist the schema document and version batch, then
// drop cached resolutions.
package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
	"github.com/kailas-cloud/verdex/internal/metrics"
	domschema "github.com/kailas-cloud/verdex/internal/schema"
	"github.com/kailas-cloud/verdex/internal/store"
)

// Service handles schema registration and tagging.
type Service struct {
	compiler    Compiler
	registry    Registry
	store       Store
	invalidator Invalidator
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a schema service.
func New(compiler Compiler, reg Registry, s Store, inv Invalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		compiler:    compiler,
		registry:    reg,
		store:       s,
		invalidator: inv,
		logger:      logger,
		now:         time.Now,
	}
}

// RegisterResult reports what a registration produced.
type RegisterResult struct {
	DocType  string              `json:"doc_type"`
	Fields   int                 `json:"fields"`
	Versions int                 `json:"versions"`
	Issues   map[string][]string `json:"issues,omitempty"`
}

// Register compiles and persists a schema. The write order is index first,
// then schema document, then version batch: a failure partway leaves the
// registry unaware of a half-registered schema rather than pointing at an
// index that does not exist.
func (s *Service) Register(ctx context.Context, in domschema.Input) (RegisterResult, error) {
	out, err := s.compiler.Compile(ctx, in)
	if err != nil {
		metrics.SchemaCompilationsTotal.WithLabelValues(in.DocType, "error").Inc()
		return RegisterResult{}, fmt.Errorf("compile schema %s: %w", in.DocType, err)
	}
	metrics.SchemaCompilationsTotal.WithLabelValues(in.DocType, "ok").Inc()

	if err := s.store.EnsureIndex(ctx, s.store.IndexFor(in.DocType), out.Mapping); err != nil {
		return RegisterResult{}, fmt.Errorf("ensure index for %s: %w", in.DocType, err)
	}
	if err := s.store.EnsureIndex(ctx, s.store.IndexFor(domschema.SchemasDocType), out.DefMapping); err != nil {
		return RegisterResult{}, fmt.Errorf("ensure schemas index: %w", err)
	}

	if err := s.store.Bulk(ctx, []store.BulkOp{{
		Action: store.ActionIndex,
		Index:  s.store.IndexFor(domschema.SchemasDocType),
		ID:     in.DocType,
		Doc:    out.SchemaDoc,
	}}); err != nil {
		return RegisterResult{}, fmt.Errorf("persist schema doc for %s: %w", in.DocType, err)
	}

	if err := s.registry.SaveVersions(ctx, out.Versions); err != nil {
		return RegisterResult{}, fmt.Errorf("save versions for %s: %w", in.DocType, err)
	}

	if err := s.invalidator.Invalidate(ctx, in.DocType); err != nil {
		// A stale cache entry dies by TTL anyway.
		s.logger.Warn("Failed to invalidate resolver cache",
			zap.String("doc_type", in.DocType), zap.Error(err))
	}

	return RegisterResult{
		DocType:  in.DocType,
		Fields:   len(out.Definition.Fields()),
		Versions: len(out.Versions),
		Issues:   out.Issues,
	}, nil
}

// CreateTag pins a doc type to a fixed field set under a slug. Every field id
// must be fully qualified and belong to the doc type.
func (s *Service) CreateTag(ctx context.Context, docType, slug string, fields []string,
	vis registry.Visibility, ident domain.Identity) (registry.Tag, error) {

	tag := registry.Tag{
		Slug:       slug,
		DocType:    docType,
		Fields:     fields,
		Visibility: vis,
		CreatedOn:  s.now().UTC(),
		CreatedBy:  ident.UserID,
	}
	versions, err := tag.Versions()
	if err != nil {
		return registry.Tag{}, fmt.Errorf("%w: %s", domain.ErrInvalidSchema, err)
	}
	for _, v := range versions {
		if v.DocType != docType {
			return registry.Tag{}, fmt.Errorf("%w: tag %s cannot pin foreign field %s",
				domain.ErrInvalidSchema, slug, v.Qualified())
		}
	}

	if err := s.registry.SaveTag(ctx, tag); err != nil {
		return registry.Tag{}, fmt.Errorf("save tag %s: %w", slug, err)
	}
	if err := s.invalidator.Invalidate(ctx, docType); err != nil {
		s.logger.Warn("Failed to invalidate resolver cache",
			zap.String("doc_type", docType), zap.Error(err))
	}
	return tag, nil
}

// CreateBranch opens a work-in-progress field set under a slug.
func (s *Service) CreateBranch(ctx context.Context, docType, slug string, fields []string,
	ident domain.Identity) (registry.Branch, error) {

	branch := registry.Branch{
		Slug:      slug,
		DocType:   docType,
		Fields:    fields,
		CreatedOn: s.now().UTC(),
		CreatedBy: ident.UserID,
	}
	for _, id := range fields {
		dt, _, _, err := domain.ParseQualifiedField(id)
		if err != nil {
			return registry.Branch{}, fmt.Errorf("%w: %s", domain.ErrInvalidSchema, err)
		}
		if dt != docType {
			return registry.Branch{}, fmt.Errorf("%w: branch %s cannot pin foreign field %s",
				domain.ErrInvalidSchema, slug, id)
		}
	}

	if err := s.registry.SaveBranch(ctx, branch); err != nil {
		return registry.Branch{}, fmt.Errorf("save branch %s: %w", slug, err)
	}
	return branch, nil
}

// Definition loads the stored schema for a doc type and rebuilds its
// definition locally.
func (s *Service) Definition(ctx context.Context, docType string) (*domschema.Definition, error) {
	source, err := s.store.Get(ctx, s.store.IndexFor(domschema.SchemasDocType), docType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("doc type %s: %w", docType, domain.ErrSchemaNotFound)
		}
		return nil, fmt.Errorf("load schema for %s: %w", docType, err)
	}
	raw, ok := source["definition__v1"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: schema doc for %s has no definition", domain.ErrInvalidSchema, docType)
	}
	return domschema.Load(docType, raw, s.logger)
}
