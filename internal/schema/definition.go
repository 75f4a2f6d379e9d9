package schema

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/field"
	"github.com/kailas-cloud/verdex/internal/domain/pattern"
	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

// Definition is a compiled document definition: instantiated fields plus the
// schema-level metadata their validators consult. A Definition is immutable
// after compilation and safe for concurrent use.
type Definition struct {
	DocType string
	Meta    Meta

	fields      map[string]field.Field
	order       []string
	validations map[string][]string
}

// Fields returns the instantiated fields in declaration order.
func (d *Definition) Fields() []field.Field {
	out := make([]field.Field, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.fields[name])
	}
	return out
}

// Field returns the field registered under name.
func (d *Definition) Field(name string) (field.Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

func (d *Definition) context() field.DocContext {
	return field.DocContext{Choices: d.Meta.Choices, Messages: d.Meta.Messages}
}

// PhysicalValues returns a copy of doc with every declared field's value run
// through its physical transform while keeping logical key names. Declared
// fields absent from doc are materialized when the transform produces a value
// on its own, as auto-populated datetimes and declared defaults do.
func (d *Definition) PhysicalValues(doc domain.LogicalDocument) domain.LogicalDocument {
	out := make(domain.LogicalDocument, len(doc))
	if id, ok := doc[domain.IDKey]; ok {
		out[domain.IDKey] = id
	}
	for _, name := range d.order {
		f := d.fields[name]
		value, present := doc[name]
		pv := physicalValue(f, value)
		if present || pv != nil {
			out[name] = pv
		}
	}
	return out
}

func physicalValue(f field.Field, value any) any {
	if c, ok := f.(field.Container); ok {
		return containerValue(c, value)
	}
	return f.Physical(value)[f.PhysicalKey()]
}

func containerValue(c field.Container, value any) any {
	switch v := value.(type) {
	case map[string]any:
		return childValues(c, v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			if m, ok := elem.(map[string]any); ok {
				out[i] = childValues(c, m)
				continue
			}
			out[i] = elem
		}
		return out
	default:
		return value
	}
}

func childValues(c field.Container, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	if id, ok := m[domain.IDKey]; ok {
		out[domain.IDKey] = id
	}
	for name, child := range c.Children() {
		value, present := m[name]
		pv := physicalValue(child, value)
		if present || pv != nil {
			out[name] = pv
		}
	}
	return out
}

// PathResolver maps a "{doc_type}.{field}" validation path to the physical
// query path for the owning index.
type PathResolver func(docType, fieldName string) string

// Patterns collects every store-side check the given document needs: link
// existence probes plus declared field validations. Keys follow the
// "{field}.{name}" convention the validators read back from ExternalResults.
func (d *Definition) Patterns(doc domain.LogicalDocument, resolve PathResolver) []pattern.Named {
	var out []pattern.Named
	for _, name := range d.order {
		f := d.fields[name]
		if src, ok := f.(field.PatternSource); ok {
			out = append(out, src.Patterns(doc[name])...)
		}
		for _, vname := range d.validations[name] {
			decl, ok := d.lookupValidation(name, vname)
			if !ok {
				continue
			}
			p, ok := d.declPattern(name, vname, decl, doc, resolve)
			if ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func (d *Definition) lookupValidation(fieldName, vname string) (Validation, bool) {
	if decl, ok := d.Meta.Validations[fieldName+"."+vname]; ok {
		return decl, true
	}
	decl, ok := d.Meta.Validations[vname]
	return decl, ok
}

func (d *Definition) declPattern(fieldName, vname string, decl Validation,
	doc domain.LogicalDocument, resolve PathResolver) (pattern.Named, bool) {

	docType, path, ok := strings.Cut(decl.Path, ".")
	if !ok {
		return pattern.Named{}, false
	}
	value := decl.Value
	if value == SelfValue {
		value = doc[fieldName]
	}
	if value == nil {
		return pattern.Named{}, false
	}
	if resolve != nil {
		path = resolve(docType, path)
	}

	named := pattern.Named{Key: fieldName + "." + vname, Index: docType}
	switch decl.Type {
	case ValidationExists:
		named.Pattern = pattern.Exists{Path: path, Value: value}
	case ValidationNotExists:
		named.Pattern = pattern.NotExists{Path: path, Value: value}
	default:
		return pattern.Named{}, false
	}
	return named, true
}

// Validate runs every field validator against the logical document, feeding
// pre-resolved pattern verdicts through ext. Unknown top-level keys are
// rejected; id passes through unchecked.
func (d *Definition) Validate(doc domain.LogicalDocument, ext field.ExternalResults) validation.Result {
	var r validation.Result
	ctx := d.context()

	var unknown []string
	for key := range doc {
		if key == domain.IDKey {
			continue
		}
		if _, ok := d.fields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		r.Add(key, "is not a declared field")
	}

	for _, name := range d.order {
		r.Merge(d.fields[name].Validate(doc[name], ctx, ext))
	}
	return r
}

// LinkTargets returns the distinct doc types referenced by link fields, in
// sorted order.
func (d *Definition) LinkTargets() []string {
	seen := map[string]bool{}
	for _, name := range d.order {
		if l, ok := d.fields[name].(interface{ Target() string }); ok {
			seen[l.Target()] = true
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
