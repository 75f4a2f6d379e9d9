package field

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

// listField is a homogeneous scalar array. The element kind is taken from the
// parametrized type tag, e.g. "list:string".
type listField struct {
	base
	elem Kind
}

var listElems = map[Kind]bool{
	String: true, Number: true, DateTime: true, Check: true,
}

func newList(b base, attrs map[string]any, elem Kind) (Field, error) {
	if err := b.checkAttrs(attrs); err != nil {
		return nil, err
	}
	if !listElems[elem] {
		return nil, &domain.ConfigError{DocType: b.docType, Field: b.name,
			Reason: fmt.Sprintf("unsupported list element type %q", elem)}
	}
	return &listField{base: b, elem: elem}, nil
}

func (f *listField) Kind() Kind { return List }

func (f *listField) Validate(value any, _ DocContext, _ ExternalResults) validation.Result {
	var r validation.Result
	if f.requiredErr(value, &r) {
		return r
	}
	list, ok := value.([]any)
	if !ok {
		r.Add(f.name, "must be a list")
		return r
	}
	for i, el := range list {
		if msg := f.validateElem(el); msg != "" {
			r.Add(f.name, fmt.Sprintf("item %d: %s", i, msg))
		}
	}
	return r
}

func (f *listField) validateElem(el any) string {
	switch f.elem {
	case String:
		if _, ok := el.(string); !ok {
			return "must be a string"
		}
	case Number:
		if _, ok := toFloat(el); !ok {
			return "must be a number"
		}
	case Check:
		if _, ok := el.(bool); !ok {
			return "must be a boolean"
		}
	case DateTime:
		s, ok := el.(string)
		if !ok {
			return "must be a datetime string"
		}
		if _, err := time.Parse(WireFormat, s); err != nil {
			return fmt.Sprintf("must be a datetime in %s format", WireFormat)
		}
	}
	return ""
}

func (f *listField) Mapping() map[string]any {
	var m map[string]any
	switch f.elem {
	case Number:
		m = map[string]any{"type": "double"}
	case Check:
		m = map[string]any{"type": "boolean"}
	case DateTime:
		m = map[string]any{"type": "date", "format": "strict_date_optional_time"}
	default:
		m = map[string]any{"type": "keyword"}
	}
	return map[string]any{f.PhysicalKey(): m}
}

func (f *listField) DefPhysical() map[string]any {
	def := f.defBase(List)
	def[defKey("type")] = string(List) + ":" + string(f.elem)
	return def
}

func (f *listField) DefMapping() map[string]any { return defBaseMapping() }
