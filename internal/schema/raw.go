// Package schema compiles a raw document definition into an index mapping, a
// persisted self-describing schema document and a batch of field-version
// registrations.
package schema

import (
	"fmt"

	"github.com/kailas-cloud/verdex/internal/domain"
)

// Validation kinds resolvable through the pattern protocol.
const (
	ValidationExists    = "exists"
	ValidationNotExists = "not-exists"
)

// SelfValue marks a validation whose probe value is the field's own incoming
// value.
const SelfValue = "self"

// Validation is a declared store-side check bound to a dotted path.
type Validation struct {
	Type  string `json:"type"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Meta is the schema's meta block: named choice sets, message templates and
// validation declarations keyed "{field}.{name}".
type Meta struct {
	Choices     map[string][]string   `json:"choices,omitempty"`
	Messages    map[string]string     `json:"messages,omitempty"`
	Validations map[string]Validation `json:"validations,omitempty"`
}

// Raw is a parsed raw schema: field attribute blocks plus meta.
type Raw struct {
	Fields map[string]map[string]any
	Meta   Meta
}

// ParseRaw decodes a generic schema payload. The payload has a "fields" block
// of per-field attribute maps and an optional "meta" block.
func ParseRaw(payload map[string]any) (Raw, error) {
	rawFields, ok := payload["fields"].(map[string]any)
	if !ok || len(rawFields) == 0 {
		return Raw{}, fmt.Errorf("%w: schema requires a non-empty fields block", domain.ErrInvalidSchema)
	}

	out := Raw{
		Fields: make(map[string]map[string]any, len(rawFields)),
		Meta: Meta{
			Choices:     map[string][]string{},
			Messages:    map[string]string{},
			Validations: map[string]Validation{},
		},
	}
	for name, v := range rawFields {
		attrs, ok := v.(map[string]any)
		if !ok {
			return Raw{}, fmt.Errorf("%w: field %q must be an attribute map", domain.ErrInvalidSchema, name)
		}
		out.Fields[name] = cloneAttrs(attrs)
	}

	if rawMeta, ok := payload["meta"].(map[string]any); ok {
		parseMeta(rawMeta, &out.Meta)
	}
	return out, nil
}

func parseMeta(raw map[string]any, meta *Meta) {
	if choices, ok := raw["choices"].(map[string]any); ok {
		for name, v := range choices {
			if list, ok := v.([]any); ok {
				set := make([]string, 0, len(list))
				for _, el := range list {
					if s, ok := el.(string); ok {
						set = append(set, s)
					}
				}
				meta.Choices[name] = set
			}
		}
	}
	if messages, ok := raw["messages"].(map[string]any); ok {
		for name, v := range messages {
			if s, ok := v.(string); ok {
				meta.Messages[name] = s
			}
		}
	}
	if validations, ok := raw["validations"].(map[string]any); ok {
		for name, v := range validations {
			decl, ok := v.(map[string]any)
			if !ok {
				continue
			}
			typ, _ := decl["type"].(string)
			path, _ := decl["path"].(string)
			meta.Validations[name] = Validation{Type: typ, Path: path, Value: decl["value"]}
		}
	}
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
