package field

import (
	"fmt"

	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

type numberField struct {
	base
	min         *float64
	max         *float64
	onlyPos     bool
	onlyNeg     bool
	validations []string
}

func newNumber(b base, attrs map[string]any) (Field, error) {
	if err := b.checkAttrs(attrs,
		"min_value", "max_value", "only_positive", "only_negative", "validations"); err != nil {
		return nil, err
	}
	return &numberField{
		base:        b,
		min:         floatPtrAttr(attrs, "min_value"),
		max:         floatPtrAttr(attrs, "max_value"),
		onlyPos:     boolAttr(attrs, "only_positive"),
		onlyNeg:     boolAttr(attrs, "only_negative"),
		validations: stringsAttr(attrs, "validations"),
	}, nil
}

func (f *numberField) Kind() Kind { return Number }

func (f *numberField) Validate(value any, doc DocContext, ext ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	n, ok := toFloat(value)
	if !ok {
		r.Add(f.name, "must be a number")
		return r
	}

	// Equality with a bound passes; only strict over/undershoot fails.
	if f.min != nil && n < *f.min {
		r.Add(f.name, fmt.Sprintf("must be at least %v", *f.min))
	}
	if f.max != nil && n > *f.max {
		r.Add(f.name, fmt.Sprintf("must be at most %v", *f.max))
	}
	if f.onlyPos && n <= 0 {
		r.Add(f.name, "must be positive")
	}
	if f.onlyNeg && n >= 0 {
		r.Add(f.name, "must be negative")
	}

	f.applyValidations(f.validations, doc, ext, &r)
	return r
}

func (f *numberField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{"type": "double"}}
}

func (f *numberField) DefPhysical() map[string]any {
	def := f.defBase(Number)
	if f.min != nil {
		def[defKey("min_value")] = *f.min
	}
	if f.max != nil {
		def[defKey("max_value")] = *f.max
	}
	if f.onlyPos {
		def[defKey("only_positive")] = true
	}
	if f.onlyNeg {
		def[defKey("only_negative")] = true
	}
	if len(f.validations) > 0 {
		def[defKey("validations")] = f.validations
	}
	return def
}

func (f *numberField) DefMapping() map[string]any {
	m := defBaseMapping()
	m[defKey("min_value")] = map[string]any{"type": "double"}
	m[defKey("max_value")] = map[string]any{"type": "double"}
	m[defKey("only_positive")] = map[string]any{"type": "boolean"}
	m[defKey("only_negative")] = map[string]any{"type": "boolean"}
	m[defKey("validations")] = map[string]any{"type": "keyword"}
	return m
}
