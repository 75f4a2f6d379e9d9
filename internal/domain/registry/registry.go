// Package registry defines the append-only catalogue of field versions and
// the tag/branch bindings that pin a document type to a coherent version set.
package registry

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/verdex/internal/domain"
)

// FieldVersion is one immutable registration of a (doc type, field, version,
// type) combination. Deactivation is a flag flip; records are never removed.
type FieldVersion struct {
	ID        string    `json:"id"`
	DocType   string    `json:"doc_type"`
	FieldName string    `json:"field_name"`
	Version   int       `json:"version"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"is_active"`
	Tag       string    `json:"tag,omitempty"`
	Branch    string    `json:"branch,omitempty"`
	CreatedOn time.Time `json:"created_on"`
	CreatedBy string    `json:"created_by"`
}

// Qualified returns the fully-qualified identifier {doc_type}__{field}__v{N}.
func (v FieldVersion) Qualified() string {
	return domain.QualifiedField(v.DocType, v.FieldName, v.Version)
}

// Validate checks the invariants a registration must hold before persisting.
func (v FieldVersion) Validate() error {
	if v.DocType == "" || v.FieldName == "" {
		return fmt.Errorf("field version requires doc_type and field_name")
	}
	if v.Version <= 0 {
		return fmt.Errorf("field version %s.%s: version must be positive, got %d",
			v.DocType, v.FieldName, v.Version)
	}
	return nil
}

// Visibility restricts who may resolve a tagged schema. Empty lists mean
// unrestricted.
type Visibility struct {
	Users  []string `json:"users,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// Allows reports whether the identity may see the guarded resource.
func (v Visibility) Allows(ident domain.Identity) bool {
	if len(v.Users) == 0 && len(v.Groups) == 0 {
		return true
	}
	for _, u := range v.Users {
		if u == ident.UserID {
			return true
		}
	}
	for _, g := range v.Groups {
		if ident.InGroup(g) {
			return true
		}
	}
	return false
}

// Tag is a named, fixed binding of a doc type to a set of fully-qualified
// field identifiers: a schema release.
type Tag struct {
	Slug       string     `json:"slug"`
	DocType    string     `json:"doc_type"`
	Fields     []string   `json:"fields"`
	Visibility Visibility `json:"visibility"`
	CreatedOn  time.Time  `json:"created_on"`
	CreatedBy  string     `json:"created_by"`
}

// Versions parses the tag's field set into FieldVersion stubs (doc type,
// field name and version only).
func (t Tag) Versions() ([]FieldVersion, error) {
	out := make([]FieldVersion, 0, len(t.Fields))
	for _, id := range t.Fields {
		docType, field, v, err := domain.ParseQualifiedField(id)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", t.Slug, err)
		}
		out = append(out, FieldVersion{
			DocType:   docType,
			FieldName: field,
			Version:   v,
			IsActive:  true,
			Tag:       t.Slug,
		})
	}
	return out, nil
}

// Branch is the work-in-progress analogue of a Tag.
type Branch struct {
	Slug      string    `json:"slug"`
	DocType   string    `json:"doc_type"`
	Fields    []string  `json:"fields"`
	CreatedOn time.Time `json:"created_on"`
	CreatedBy string    `json:"created_by"`
}
