package field

import (
	"fmt"

	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

type textField struct {
	base
	minLen *int
	maxLen *int
}

func newText(b base, attrs map[string]any) (Field, error) {
	if err := b.checkAttrs(attrs, "min_length", "max_length"); err != nil {
		return nil, err
	}
	return &textField{
		base:   b,
		minLen: intPtrAttr(attrs, "min_length"),
		maxLen: intPtrAttr(attrs, "max_length"),
	}, nil
}

func (f *textField) Kind() Kind { return Text }

func (f *textField) Validate(value any, _ DocContext, _ ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	s, ok := value.(string)
	if !ok {
		r.Add(f.name, "must be a string")
		return r
	}
	if f.minLen != nil && len(s) < *f.minLen {
		r.Add(f.name, fmt.Sprintf("must be at least %d characters", *f.minLen))
	}
	if f.maxLen != nil && len(s) > *f.maxLen {
		r.Add(f.name, fmt.Sprintf("must be at most %d characters", *f.maxLen))
	}
	return r
}

func (f *textField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{"type": "text"}}
}

func (f *textField) DefPhysical() map[string]any {
	def := f.defBase(Text)
	if f.minLen != nil {
		def[defKey("min_length")] = *f.minLen
	}
	if f.maxLen != nil {
		def[defKey("max_length")] = *f.maxLen
	}
	return def
}

func (f *textField) DefMapping() map[string]any {
	m := defBaseMapping()
	m[defKey("min_length")] = map[string]any{"type": "long"}
	m[defKey("max_length")] = map[string]any{"type": "long"}
	return m
}
