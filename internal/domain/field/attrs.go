package field

import "github.com/kailas-cloud/verdex/internal/domain"

// Attribute values arrive from decoded JSON or YAML, so numbers may be int,
// int64 or float64 depending on the decoder.

func intAttr(attrs map[string]any, key string, def int) int {
	v, ok := attrs[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

func boolAttr(attrs map[string]any, key string) bool {
	b, _ := attrs[key].(bool)
	return b
}

func stringAttr(attrs map[string]any, key string) string {
	s, _ := attrs[key].(string)
	return s
}

func floatPtrAttr(attrs map[string]any, key string) *float64 {
	v, ok := attrs[key]
	if !ok {
		return nil
	}
	if f, ok := toFloat(v); ok {
		return &f
	}
	return nil
}

func intPtrAttr(attrs map[string]any, key string) *int {
	f := floatPtrAttr(attrs, key)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// stringsAttr reads a list-of-strings attribute; non-string elements are
// dropped.
func stringsAttr(attrs map[string]any, key string) []string {
	raw, ok := attrs[key].([]any)
	if !ok {
		if typed, ok := attrs[key].([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// defBase is the shared version-suffixed self-description of a field. The
// schema definition is itself a stored document, so its keys follow the same
// version convention as ordinary data.
func (b base) defBase(kind Kind) map[string]any {
	return map[string]any{
		defKey("name"):     b.name,
		defKey("doc_type"): b.docType,
		defKey("type"):     string(kind),
		defKey("version"):  b.version,
		defKey("required"): b.required,
	}
}

// defBaseMapping maps the shared self-description fields.
func defBaseMapping() map[string]any {
	return map[string]any{
		defKey("name"):     map[string]any{"type": "keyword"},
		defKey("doc_type"): map[string]any{"type": "keyword"},
		defKey("type"):     map[string]any{"type": "keyword"},
		defKey("version"):  map[string]any{"type": "long"},
		defKey("required"): map[string]any{"type": "boolean"},
	}
}

// defKey suffixes a schema-document attribute with the definition version.
// Field-definition documents are currently always written at version 1.
func defKey(attr string) string {
	return domain.PhysicalKey(attr, 1)
}
