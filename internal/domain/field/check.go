package field

import "github.com/kailas-cloud/verdex/internal/domain/validation"

type checkField struct {
	base
}

func newCheck(b base, attrs map[string]any) (Field, error) {
	if err := b.checkAttrs(attrs); err != nil {
		return nil, err
	}
	return &checkField{base: b}, nil
}

func (f *checkField) Kind() Kind { return Check }

// Validate passes for any boolean; the type itself is the only constraint.
func (f *checkField) Validate(value any, _ DocContext, _ ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	if _, ok := value.(bool); !ok {
		r.Add(f.name, "must be a boolean")
	}
	return r
}

func (f *checkField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{"type": "boolean"}}
}

func (f *checkField) DefPhysical() map[string]any { return f.defBase(Check) }

func (f *checkField) DefMapping() map[string]any { return defBaseMapping() }
