package field

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

// mapField is a nested object: one sub-field per declared item.
type mapField struct {
	base
	items map[string]Field
	order []string
}

func newMap(b base, attrs map[string]any) (Field, error) {
	if err := b.checkAttrs(attrs, "items"); err != nil {
		return nil, err
	}
	items, order, err := buildItems(b, attrs)
	if err != nil {
		return nil, err
	}
	return &mapField{base: b, items: items, order: order}, nil
}

// buildItems instantiates a sub-field per declared item. Sub-fields inherit
// the parent's version unless they declare their own.
func buildItems(b base, attrs map[string]any) (map[string]Field, []string, error) {
	raw, ok := attrs["items"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil, nil, &domain.ConfigError{DocType: b.docType, Field: b.name,
			Reason: "items is required and must be a map of field configurations"}
	}
	items := make(map[string]Field, len(raw))
	order := make([]string, 0, len(raw))
	for name, sub := range raw {
		subAttrs, ok := sub.(map[string]any)
		if !ok {
			return nil, nil, &domain.ConfigError{DocType: b.docType, Field: b.name,
				Reason: fmt.Sprintf("item %q must be a field configuration", name)}
		}
		if _, has := subAttrs["version"]; !has {
			subAttrs = withVersion(subAttrs, b.version)
		}
		f, err := New(b.docType, name, subAttrs)
		if err != nil {
			return nil, nil, err
		}
		items[name] = f
		order = append(order, name)
	}
	sort.Strings(order)
	return items, order, nil
}

func withVersion(attrs map[string]any, version int) map[string]any {
	out := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out["version"] = version
	return out
}

func (f *mapField) Kind() Kind { return Map }

// Children returns the instantiated sub-fields keyed by item name.
func (f *mapField) Children() map[string]Field { return f.items }

// Validate dispatches to each item and aggregates every failing item's first
// error under the parent field's key.
func (f *mapField) Validate(value any, doc DocContext, ext ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	m, ok := value.(map[string]any)
	if !ok {
		r.Add(f.name, "must be an object")
		return r
	}
	for _, name := range f.order {
		sub := f.items[name].Validate(m[name], doc, ext)
		if !sub.OK() {
			r.Add(f.name, fmt.Sprintf("%s: %s", name, sub.First(name)))
		}
	}
	return r
}

func (f *mapField) Physical(value any) map[string]any {
	m, ok := value.(map[string]any)
	if !ok {
		return f.base.Physical(value)
	}
	return map[string]any{f.PhysicalKey(): f.itemsPhysical(m)}
}

func (f *mapField) itemsPhysical(m map[string]any) map[string]any {
	inner := make(map[string]any, len(m))
	for _, name := range f.order {
		v, present := m[name]
		if !present {
			continue
		}
		for k, pv := range f.items[name].Physical(v) {
			inner[k] = pv
		}
	}
	return inner
}

func (f *mapField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{
		"type":       "object",
		"properties": f.itemsMapping(),
	}}
}

func (f *mapField) itemsMapping() map[string]any {
	props := make(map[string]any)
	for _, name := range f.order {
		for k, m := range f.items[name].Mapping() {
			props[k] = m
		}
	}
	return props
}

func (f *mapField) DefPhysical() map[string]any {
	def := f.defBase(Map)
	def[defKey("items")] = f.itemsDef()
	return def
}

func (f *mapField) itemsDef() []any {
	defs := make([]any, 0, len(f.order))
	for _, name := range f.order {
		defs = append(defs, f.items[name].DefPhysical())
	}
	return defs
}

func (f *mapField) DefMapping() map[string]any {
	m := defBaseMapping()
	m[defKey("items")] = map[string]any{"type": "object", "enabled": false}
	return m
}

// mapListField is a homogeneous list of nested objects.
type mapListField struct {
	mapField
}

func newMapList(b base, attrs map[string]any) (Field, error) {
	if err := b.checkAttrs(attrs, "items"); err != nil {
		return nil, err
	}
	items, order, err := buildItems(b, attrs)
	if err != nil {
		return nil, err
	}
	return &mapListField{mapField{base: b, items: items, order: order}}, nil
}

func (f *mapListField) Kind() Kind { return MapList }

func (f *mapListField) Validate(value any, doc DocContext, ext ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	list, ok := value.([]any)
	if !ok {
		r.Add(f.name, "must be a list of objects")
		return r
	}
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			r.Add(f.name, fmt.Sprintf("item %d: must be an object", i))
			continue
		}
		for _, name := range f.order {
			sub := f.items[name].Validate(m[name], doc, ext)
			if !sub.OK() {
				r.Add(f.name, fmt.Sprintf("item %d: %s: %s", i, name, sub.First(name)))
			}
		}
	}
	return r
}

func (f *mapListField) Physical(value any) map[string]any {
	list, ok := value.([]any)
	if !ok {
		return f.base.Physical(value)
	}
	out := make([]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, f.itemsPhysical(m))
		}
	}
	return map[string]any{f.PhysicalKey(): out}
}

func (f *mapListField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{
		"type":       "nested",
		"properties": f.itemsMapping(),
	}}
}

func (f *mapListField) DefPhysical() map[string]any {
	def := f.defBase(MapList)
	def[defKey("items")] = f.itemsDef()
	return def
}
