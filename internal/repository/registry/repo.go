// Package registry persists field versions, tags and branches in the search
// store and resolves the active version set for a doc type.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/verdex/internal/domain"
	domreg "github.com/kailas-cloud/verdex/internal/domain/registry"
	"github.com/kailas-cloud/verdex/internal/store"
)

// Internal doc types backing the registry.
const (
	VersionsDocType = "field_versions"
	TagsDocType     = "tags"
	BranchesDocType = "branches"
)

// versionPageSize caps one active-version resolution. Schemas stay far below
// this.
const versionPageSize = 10_000

// searchStore is the consumer interface for the registry (ISP).
type searchStore interface {
	Get(ctx context.Context, index, id string) (map[string]any, error)
	Search(ctx context.Context, index string, query map[string]any) (*store.SearchResult, error)
	Bulk(ctx context.Context, ops []store.BulkOp) error
	IndexFor(docType string) string
}

// Repo implements projection.Resolver on top of the search store.
type Repo struct {
	store searchStore
}

// New creates a registry repository.
func New(s searchStore) *Repo {
	return &Repo{store: s}
}

// SaveVersions persists a batch of field-version registrations in one bulk
// write. Records are append-only; re-registering an id overwrites it.
func (r *Repo) SaveVersions(ctx context.Context, versions []domreg.FieldVersion) error {
	if len(versions) == 0 {
		return nil
	}
	index := r.store.IndexFor(VersionsDocType)
	ops := make([]store.BulkOp, 0, len(versions))
	for _, v := range versions {
		if err := v.Validate(); err != nil {
			return err
		}
		doc, err := toDoc(v)
		if err != nil {
			return fmt.Errorf("encode version %s: %w", v.Qualified(), err)
		}
		ops = append(ops, store.BulkOp{Action: store.ActionIndex, Index: index, ID: v.ID, Doc: doc})
	}
	return r.store.Bulk(ctx, ops)
}

// SaveTag persists a tag under the deterministic id {doc_type}:{slug}.
func (r *Repo) SaveTag(ctx context.Context, tag domreg.Tag) error {
	if tag.Slug == "" || tag.DocType == "" {
		return fmt.Errorf("tag requires slug and doc_type")
	}
	if _, err := tag.Versions(); err != nil {
		return err
	}
	doc, err := toDoc(tag)
	if err != nil {
		return fmt.Errorf("encode tag %s: %w", tag.Slug, err)
	}
	return r.store.Bulk(ctx, []store.BulkOp{{
		Action: store.ActionIndex,
		Index:  r.store.IndexFor(TagsDocType),
		ID:     tag.DocType + ":" + tag.Slug,
		Doc:    doc,
	}})
}

// SaveBranch persists a branch under {doc_type}:{slug}.
func (r *Repo) SaveBranch(ctx context.Context, branch domreg.Branch) error {
	if branch.Slug == "" || branch.DocType == "" {
		return fmt.Errorf("branch requires slug and doc_type")
	}
	doc, err := toDoc(branch)
	if err != nil {
		return fmt.Errorf("encode branch %s: %w", branch.Slug, err)
	}
	return r.store.Bulk(ctx, []store.BulkOp{{
		Action: store.ActionIndex,
		Index:  r.store.IndexFor(BranchesDocType),
		ID:     branch.DocType + ":" + branch.Slug,
		Doc:    doc,
	}})
}

// ActiveVersions resolves the version set for a doc type. A tag binds the
// resolution to the tag's pinned fields after a visibility check; without a
// tag every active registration is returned.
func (r *Repo) ActiveVersions(ctx context.Context, docType, tag string, ident domain.Identity) ([]domreg.FieldVersion, error) {
	if tag != "" {
		return r.taggedVersions(ctx, docType, tag, ident)
	}

	result, err := r.store.Search(ctx, r.store.IndexFor(VersionsDocType), map[string]any{
		"size": versionPageSize,
		"query": map[string]any{"bool": map[string]any{"filter": []any{
			map[string]any{"term": map[string]any{"doc_type": docType}},
			map[string]any{"term": map[string]any{"is_active": true}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("resolve versions for %s: %w", docType, err)
	}

	versions := make([]domreg.FieldVersion, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var v domreg.FieldVersion
		if err := fromDoc(hit.Source, &v); err != nil {
			return nil, fmt.Errorf("decode version %s: %w", hit.ID, err)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func (r *Repo) taggedVersions(ctx context.Context, docType, tag string, ident domain.Identity) ([]domreg.FieldVersion, error) {
	source, err := r.store.Get(ctx, r.store.IndexFor(TagsDocType), docType+":"+tag)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("tag %q for %s: %w", tag, docType, domain.ErrNotFound)
		}
		return nil, err
	}

	var t domreg.Tag
	if err := fromDoc(source, &t); err != nil {
		return nil, fmt.Errorf("decode tag %s: %w", tag, err)
	}
	if !t.Visibility.Allows(ident) {
		return nil, fmt.Errorf("tag %q: %w", tag, domain.ErrTagForbidden)
	}
	return t.Versions()
}

// GetTag loads one tag by doc type and slug without a visibility check.
func (r *Repo) GetTag(ctx context.Context, docType, slug string) (domreg.Tag, error) {
	source, err := r.store.Get(ctx, r.store.IndexFor(TagsDocType), docType+":"+slug)
	if err != nil {
		return domreg.Tag{}, err
	}
	var t domreg.Tag
	if err := fromDoc(source, &t); err != nil {
		return domreg.Tag{}, fmt.Errorf("decode tag %s: %w", slug, err)
	}
	return t, nil
}

func toDoc(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDoc(doc map[string]any, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
