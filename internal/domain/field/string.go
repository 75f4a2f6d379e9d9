package field

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

type stringField struct {
	base
	minLen      *int
	maxLen      *int
	choices     []string // inline choice list
	choiceSet   string   // named set resolved through DocContext
	validations []string
}

func newString(b base, attrs map[string]any) (Field, error) {
	if err := b.checkAttrs(attrs, "min_length", "max_length", "choices", "validations"); err != nil {
		return nil, err
	}
	f := &stringField{
		base:        b,
		minLen:      intPtrAttr(attrs, "min_length"),
		maxLen:      intPtrAttr(attrs, "max_length"),
		validations: stringsAttr(attrs, "validations"),
	}
	switch c := attrs["choices"].(type) {
	case string:
		f.choiceSet = c
	default:
		f.choices = stringsAttr(attrs, "choices")
	}
	return f, nil
}

func (f *stringField) Kind() Kind { return String }

func (f *stringField) Validate(value any, doc DocContext, ext ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	s, ok := value.(string)
	if !ok {
		r.Add(f.name, "must be a string")
		return r
	}

	// Bounds pass exactly at min/max and fail strictly outside.
	if f.minLen != nil && len(s) < *f.minLen {
		r.Add(f.name, fmt.Sprintf("must be at least %d characters", *f.minLen))
	}
	if f.maxLen != nil && len(s) > *f.maxLen {
		r.Add(f.name, fmt.Sprintf("must be at most %d characters", *f.maxLen))
	}

	if choices := f.resolveChoices(doc); len(choices) > 0 && !contains(choices, s) {
		r.Add(f.name, doc.Message(f.name+".choices",
			fmt.Sprintf("must be one of: %s", strings.Join(choices, ", "))))
	}

	f.applyValidations(f.validations, doc, ext, &r)
	return r
}

func (f *stringField) resolveChoices(doc DocContext) []string {
	if f.choiceSet != "" {
		return doc.Choices[f.choiceSet]
	}
	return f.choices
}

func (f *stringField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{"type": "keyword"}}
}

func (f *stringField) DefPhysical() map[string]any {
	def := f.defBase(String)
	if f.minLen != nil {
		def[defKey("min_length")] = *f.minLen
	}
	if f.maxLen != nil {
		def[defKey("max_length")] = *f.maxLen
	}
	if f.choiceSet != "" {
		def[defKey("choices")] = f.choiceSet
	} else if len(f.choices) > 0 {
		def[defKey("choices")] = f.choices
	}
	if len(f.validations) > 0 {
		def[defKey("validations")] = f.validations
	}
	return def
}

func (f *stringField) DefMapping() map[string]any {
	m := defBaseMapping()
	m[defKey("min_length")] = map[string]any{"type": "long"}
	m[defKey("max_length")] = map[string]any{"type": "long"}
	m[defKey("choices")] = map[string]any{"type": "keyword"}
	m[defKey("validations")] = map[string]any{"type": "keyword"}
	return m
}

// applyValidations checks externally resolved pattern verdicts, stopping at
// the first failing validation.
func (b base) applyValidations(names []string, doc DocContext, ext ExternalResults, r *validation.Result) {
	for _, v := range names {
		verdict, found := ext[b.name+"."+v]
		if found && verdict {
			continue
		}
		def := fmt.Sprintf("validation %q failed", v)
		if !found {
			def = fmt.Sprintf("validation %q was not resolved", v)
		}
		r.Add(b.name, doc.Message(v, def))
		break
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
