// Package projection implements the logical/physical document transformation.
//
// Physical → logical strips version suffixes, selecting one version per base
// field (the tag-bound one, or the maximum present). Logical → physical is
// registry-driven: the correct target version for each field comes from the
// field-version registry, never from the document itself.
package projection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
)

// Resolver supplies the currently valid field versions for a doc type,
// optionally restricted by a tag and the caller's visibility.
type Resolver interface {
	ActiveVersions(ctx context.Context, docType, tag string, ident domain.Identity) ([]registry.FieldVersion, error)
}

// Engine performs logical/physical projections. Stateless; one resolver
// query per ToPhysical call.
type Engine struct {
	resolver Resolver
	logger   *zap.Logger
}

// New creates a projection engine.
func New(resolver Resolver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{resolver: resolver, logger: logger}
}

// KeyMap maps logical field paths (dotted for nested fields) to physical
// document keys for one doc type and resolution context.
type KeyMap map[string]string

// Key resolves the physical key for a field at the given path. Path-qualified
// entries win over bare names; a field unknown to the registry falls back to
// version 1.
func (m KeyMap) Key(path, leaf string) string {
	if k, ok := m[path]; ok {
		return k
	}
	if k, ok := m[leaf]; ok {
		return k
	}
	return domain.PhysicalKey(leaf, 1)
}

// Keys resolves the logical→physical key mapping for a doc type in one
// registry query. When several versions of a field are active, the highest
// one receives future writes.
func (e *Engine) Keys(ctx context.Context, docType, tag string, ident domain.Identity) (KeyMap, error) {
	versions, err := e.resolver.ActiveVersions(ctx, docType, tag, ident)
	if err != nil {
		return nil, fmt.Errorf("resolve versions for %s: %w", docType, err)
	}
	keys := make(KeyMap, len(versions))
	picked := make(map[string]int, len(versions))
	for _, v := range versions {
		if prev, ok := picked[v.FieldName]; ok && prev >= v.Version {
			continue
		}
		picked[v.FieldName] = v.Version
		keys[v.FieldName] = domain.PhysicalKey(leafName(v.FieldName), v.Version)
	}
	e.logger.Debug("resolved field versions",
		zap.String("doc_type", docType), zap.String("tag", tag), zap.Int("fields", len(keys)))
	return keys, nil
}

// TargetVersions builds the version set bound to a tag (or the active set
// when tag is empty), for version-exact physical→logical projection.
func (e *Engine) TargetVersions(ctx context.Context, docType, tag string, ident domain.Identity) (domain.VersionSet, error) {
	versions, err := e.resolver.ActiveVersions(ctx, docType, tag, ident)
	if err != nil {
		return nil, fmt.Errorf("resolve versions for %s: %w", docType, err)
	}
	set := make(domain.VersionSet, len(versions))
	for _, v := range versions {
		leaf := leafName(v.FieldName)
		if set[leaf] == nil {
			set[leaf] = make(map[int]bool)
		}
		set[leaf][v.Version] = true
	}
	return set, nil
}

// ToPhysical projects a logical document to its physical form, resolving the
// target version of every field through the registry in a single query.
func (e *Engine) ToPhysical(ctx context.Context, doc domain.LogicalDocument, docType, tag string, ident domain.Identity) (domain.PhysicalDocument, error) {
	keys, err := e.Keys(ctx, docType, tag, ident)
	if err != nil {
		return nil, err
	}
	return e.ProjectPhysical(doc, keys), nil
}

// ProjectPhysical projects with an already-resolved key map, letting callers
// reuse one resolution for projection and pattern building.
func (e *Engine) ProjectPhysical(doc domain.LogicalDocument, keys KeyMap) domain.PhysicalDocument {
	return walkPhysical(map[string]any(doc), "", keys)
}

func walkPhysical(doc map[string]any, path string, keys KeyMap) map[string]any {
	out := make(map[string]any, len(doc))
	for name, value := range doc {
		if name == domain.IDKey {
			out[domain.IDKey] = value
			continue
		}
		p := joinPath(path, name)
		key := keys.Key(p, name)
		out[key] = projectValue(value, p, keys)
	}
	return out
}

func projectValue(value any, path string, keys KeyMap) any {
	switch v := value.(type) {
	case map[string]any:
		return walkPhysical(v, path, keys)
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			if m, ok := el.(map[string]any); ok {
				out[i] = walkPhysical(m, path, keys)
			} else {
				out[i] = el
			}
		}
		return out
	default:
		return value
	}
}

// ToLogical projects a physical document back to logical form. With a nil
// target set the maximum version present wins per field; with an explicit set
// (a tag's field versions) exactly the bound version is selected, fields with
// no admitted version are omitted, and a tie under the constraint fails with
// AmbiguousFieldError.
func (e *Engine) ToLogical(doc domain.PhysicalDocument, target domain.VersionSet) (domain.LogicalDocument, error) {
	out, err := walkLogical(map[string]any(doc), target)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type candidate struct {
	version int
	value   any
}

func walkLogical(doc map[string]any, target domain.VersionSet) (map[string]any, error) {
	grouped := make(map[string][]candidate)
	out := make(map[string]any, len(doc))

	for key, value := range doc {
		if key == domain.IDKey {
			out[domain.IDKey] = value
			continue
		}
		field, version, ok := domain.ParsePhysicalKey(key)
		if !ok {
			// Keys outside the version convention pass through untouched.
			out[key] = value
			continue
		}
		grouped[field] = append(grouped[field], candidate{version: version, value: value})
	}

	for field, cands := range grouped {
		chosen, found, err := selectCandidate(field, cands, target)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		logical, err := logicalValue(chosen.value, target)
		if err != nil {
			return nil, err
		}
		out[field] = logical
	}
	return out, nil
}

func selectCandidate(field string, cands []candidate, target domain.VersionSet) (candidate, bool, error) {
	if target == nil {
		best := cands[0]
		for _, c := range cands[1:] {
			if c.version > best.version {
				best = c
			}
		}
		return best, true, nil
	}

	var matched []candidate
	for _, c := range cands {
		if target.Admits(field, c.version) {
			matched = append(matched, c)
		}
	}
	switch len(matched) {
	case 0:
		// No version admitted by the tag: the field is not part of this
		// schema view.
		return candidate{}, false, nil
	case 1:
		return matched[0], true, nil
	default:
		versions := make([]int, len(matched))
		for i, c := range matched {
			versions[i] = c.version
		}
		sort.Ints(versions)
		return candidate{}, false, &domain.AmbiguousFieldError{Field: field, Versions: versions}
	}
}

func logicalValue(value any, target domain.VersionSet) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		return walkLogical(v, target)
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			if m, ok := el.(map[string]any); ok {
				l, err := walkLogical(m, target)
				if err != nil {
					return nil, err
				}
				out[i] = l
			} else {
				out[i] = el
			}
		}
		return out, nil
	default:
		return value, nil
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func leafName(field string) string {
	if i := strings.LastIndex(field, "."); i >= 0 {
		return field[i+1:]
	}
	return field
}
