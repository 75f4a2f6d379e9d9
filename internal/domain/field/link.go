package field

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/pattern"
	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

// linkField references a single document of another doc type by id. Existence
// of the target is checked through an externally resolved pattern; the field
// never queries the store itself.
type linkField struct {
	base
	target string
}

func newLink(b base, attrs map[string]any) (Field, error) {
	if err := b.checkAttrs(attrs, "doc_type"); err != nil {
		return nil, err
	}
	target := stringAttr(attrs, "doc_type")
	if target == "" {
		return nil, &domain.ConfigError{DocType: b.docType, Field: b.name,
			Reason: "doc_type is required for link fields"}
	}
	return &linkField{base: b, target: target}, nil
}

func (f *linkField) Kind() Kind { return Link }

// Target returns the referenced doc type.
func (f *linkField) Target() string { return f.target }

func (f *linkField) Validate(value any, doc DocContext, ext ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	id, ok := value.(string)
	if !ok || id == "" {
		r.Add(f.name, "must be a document id")
		return r
	}
	if verdict, found := ext[f.name+".exists"]; !found || !verdict {
		r.Add(f.name, doc.Message(f.name+".exists",
			fmt.Sprintf("referenced %s %q does not exist", f.target, id)))
	}
	return r
}

// Patterns returns the batched existence check for the referenced id.
func (f *linkField) Patterns(value any) []pattern.Named {
	id, ok := value.(string)
	if !ok || id == "" {
		return nil
	}
	return []pattern.Named{{
		Key:     f.name + ".exists",
		Index:   f.target,
		Pattern: pattern.Exists{Path: domain.IDKey, Value: id},
	}}
}

// Physical nests the referenced id under the versioned relation key. An
// absent value stays absent; no empty stub is written.
func (f *linkField) Physical(value any) map[string]any {
	phys := f.base.Physical(value)
	if id := phys[f.PhysicalKey()]; id != nil {
		phys[f.PhysicalKey()] = map[string]any{domain.IDKey: id}
	}
	return phys
}

func (f *linkField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{
		"type": "object",
		"properties": map[string]any{
			domain.IDKey: map[string]any{"type": "keyword"},
		},
	}}
}

func (f *linkField) DefPhysical() map[string]any {
	def := f.defBase(Link)
	def[defKey("doc_type")] = f.target
	return def
}

func (f *linkField) DefMapping() map[string]any {
	m := defBaseMapping()
	m[defKey("doc_type")] = map[string]any{"type": "keyword"}
	return m
}

// linksField is the many-reference analogue of linkField.
type linksField struct {
	linkField
}

func newLinks(b base, attrs map[string]any) (Field, error) {
	f, err := newLink(b, attrs)
	if err != nil {
		return nil, err
	}
	return &linksField{*f.(*linkField)}, nil
}

func (f *linksField) Kind() Kind { return Links }

func (f *linksField) Validate(value any, doc DocContext, ext ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	ids, ok := value.([]any)
	if !ok {
		r.Add(f.name, "must be a list of document ids")
		return r
	}
	for i, el := range ids {
		id, ok := el.(string)
		if !ok || id == "" {
			r.Add(f.name, fmt.Sprintf("item %d: must be a document id", i))
			continue
		}
		key := f.name + ".exists." + strconv.Itoa(i)
		if verdict, found := ext[key]; !found || !verdict {
			r.Add(f.name, doc.Message(f.name+".exists",
				fmt.Sprintf("item %d: referenced %s %q does not exist", i, f.target, id)))
		}
	}
	return r
}

func (f *linksField) Patterns(value any) []pattern.Named {
	ids, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]pattern.Named, 0, len(ids))
	for i, el := range ids {
		id, ok := el.(string)
		if !ok || id == "" {
			continue
		}
		out = append(out, pattern.Named{
			Key:     f.name + ".exists." + strconv.Itoa(i),
			Index:   f.target,
			Pattern: pattern.Exists{Path: domain.IDKey, Value: id},
		})
	}
	return out
}

// Physical produces an array of relation stubs.
func (f *linksField) Physical(value any) map[string]any {
	phys := f.base.Physical(value)
	ids, ok := phys[f.PhysicalKey()].([]any)
	if !ok {
		return phys
	}
	stubs := make([]any, 0, len(ids))
	for _, id := range ids {
		stubs = append(stubs, map[string]any{domain.IDKey: id})
	}
	phys[f.PhysicalKey()] = stubs
	return phys
}

func (f *linksField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{
		"type": "nested",
		"properties": map[string]any{
			domain.IDKey: map[string]any{"type": "keyword"},
		},
	}}
}

func (f *linksField) DefPhysical() map[string]any {
	def := f.defBase(Links)
	def[defKey("doc_type")] = f.target
	return def
}
