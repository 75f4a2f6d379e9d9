package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// IDKey is the reserved document key that carries no version suffix.
const IDKey = "id"

const versionSep = "__v"

// LogicalDocument is the caller-facing document form: plain field names,
// values are scalars, nested maps or arrays of nested maps.
type LogicalDocument map[string]any

// PhysicalDocument is the store-facing form: every key except "id" is
// version-qualified as {field}__v{N}.
type PhysicalDocument map[string]any

// PhysicalKey formats a versioned document key.
func PhysicalKey(field string, version int) string {
	return field + versionSep + strconv.Itoa(version)
}

// ParsePhysicalKey splits a document key into base field name and version.
// The reserved "id" key and keys without a version suffix report ok=false.
func ParsePhysicalKey(key string) (field string, version int, ok bool) {
	if key == IDKey {
		return "", 0, false
	}
	idx := strings.LastIndex(key, versionSep)
	if idx <= 0 {
		return "", 0, false
	}
	v, err := strconv.Atoi(key[idx+len(versionSep):])
	if err != nil || v <= 0 {
		return "", 0, false
	}
	return key[:idx], v, true
}

// QualifiedField formats a fully-qualified field identifier as used by the
// registry, tags and target-version sets.
func QualifiedField(docType, field string, version int) string {
	return docType + "__" + field + versionSep + strconv.Itoa(version)
}

// ParseQualifiedField splits a fully-qualified identifier into its parts.
func ParseQualifiedField(id string) (docType, field string, version int, err error) {
	base, v, ok := ParsePhysicalKey(id)
	if !ok {
		return "", "", 0, fmt.Errorf("malformed field identifier %q", id)
	}
	docType, field, found := strings.Cut(base, "__")
	if !found || docType == "" || field == "" {
		return "", "", 0, fmt.Errorf("malformed field identifier %q", id)
	}
	return docType, field, v, nil
}

// VersionSet is the set of versions admitted per base field name, built from
// fully-qualified identifiers (typically a tag's field set). A nil VersionSet
// means "no constraint" and callers fall back to max-version selection.
type VersionSet map[string]map[int]bool

// NewVersionSet parses qualified identifiers into a VersionSet. Malformed
// identifiers are rejected.
func NewVersionSet(ids []string) (VersionSet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	set := make(VersionSet, len(ids))
	for _, id := range ids {
		_, field, v, err := ParseQualifiedField(id)
		if err != nil {
			return nil, err
		}
		if set[field] == nil {
			set[field] = make(map[int]bool)
		}
		set[field][v] = true
	}
	return set, nil
}

// Admits reports whether the set allows the given field version. A nil set
// admits nothing explicitly; callers must treat nil as "unconstrained".
func (s VersionSet) Admits(field string, version int) bool {
	if s == nil {
		return false
	}
	return s[field][version]
}
