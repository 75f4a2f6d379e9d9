// Package field implements the polymorphic field-type system: per-kind
// configuration validation, index-mapping generation, physical projection and
// value validation.
//
// Kinds form a closed set resolved through a constructor table; there is no
// reflection-based dispatch. Construction is eager: unknown attributes or an
// invalid attribute combination fail immediately with a domain.ConfigError.
package field

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/pattern"
	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

// Kind is the closed field-kind tag.
type Kind string

// Field kinds.
const (
	String   Kind = "string"
	Number   Kind = "number"
	Text     Kind = "text"
	Check    Kind = "check"
	DateTime Kind = "datetime"
	Map      Kind = "map"
	MapList  Kind = "maplist"
	List     Kind = "list"
	Link     Kind = "link"
	Links    Kind = "links"
)

// DocContext carries schema-level metadata consulted during validation:
// named choice sets and message templates from the schema's meta block.
type DocContext struct {
	Choices  map[string][]string
	Messages map[string]string
}

// Message returns the template registered under key, or def.
func (d DocContext) Message(key, def string) string {
	if m, ok := d.Messages[key]; ok && m != "" {
		return m
	}
	return def
}

// ExternalResults holds pre-fetched pattern verdicts keyed
// "{field}.{validation}". Validators never query the store themselves.
type ExternalResults map[string]bool

// Items names a field's physical key and logical name pair.
type Items struct {
	PhysicalKey string
	LogicalName string
}

// Field is the capability set every concrete kind implements.
type Field interface {
	Name() string
	DocType() string
	Kind() Kind
	Version() int
	PhysicalKey() string

	// Validate checks a logical value. It performs no I/O; store-dependent
	// checks are answered through ext.
	Validate(value any, doc DocContext, ext ExternalResults) validation.Result
	// Mapping returns the index-mapping fragment keyed by physical key.
	Mapping() map[string]any
	// Physical returns the physical document fragment for a logical value.
	Physical(value any) map[string]any
	// Items returns the physical/logical name pair.
	Items() Items
	// DefPhysical returns the field's own configuration as a version-suffixed
	// schema-document fragment.
	DefPhysical() map[string]any
	// DefMapping returns the mapping fragment for the field's own metadata.
	DefMapping() map[string]any
}

// PatternSource is implemented by kinds whose validation needs batched store
// lookups (Link, Links). Patterns are keyed by doc type in Named.Index; the
// caller maps doc types to index names before querying.
type PatternSource interface {
	Patterns(value any) []pattern.Named
}

// Container is implemented by kinds composed of named sub-fields (Map,
// MapList). Children are keyed by their logical item name.
type Container interface {
	Children() map[string]Field
}

type constructor func(b base, attrs map[string]any) (Field, error)

var constructors map[Kind]constructor

// The table is filled in init because Map/MapList constructors reach back
// into New for their sub-fields; a composite literal would cycle.
func init() {
	constructors = map[Kind]constructor{
		String:   newString,
		Number:   newNumber,
		Text:     newText,
		Check:    newCheck,
		DateTime: newDateTime,
		Map:      newMap,
		MapList:  newMapList,
		Link:     newLink,
		Links:    newLinks,
	}
}

// New builds a field from its raw attribute set. The "type" attribute selects
// the kind; "list:{elem}" selects List with a scalar element kind.
func New(docType, name string, attrs map[string]any) (Field, error) {
	if name == "" || strings.Contains(name, "__") {
		return nil, &domain.ConfigError{DocType: docType, Field: name,
			Reason: "field name must be non-empty and must not contain \"__\""}
	}
	if name == domain.IDKey {
		return nil, &domain.ConfigError{DocType: docType, Field: name,
			Reason: "\"id\" is reserved"}
	}

	typ, _ := attrs["type"].(string)
	b := base{
		docType:  docType,
		name:     name,
		version:  intAttr(attrs, "version", 1),
		required: boolAttr(attrs, "required"),
		def:      attrs["default"],
	}

	if elem, ok := strings.CutPrefix(typ, string(List)+":"); ok {
		return newList(b, attrs, Kind(elem))
	}
	ctor, ok := constructors[Kind(typ)]
	if !ok {
		return nil, &domain.ConfigError{DocType: docType, Field: name,
			Reason: "unknown field type " + strings.TrimSpace("\""+typ+"\"")}
	}
	return ctor(b, attrs)
}

// base carries the identity every kind shares.
type base struct {
	docType  string
	name     string
	version  int
	required bool
	def      any
}

func (b base) Name() string    { return b.name }
func (b base) DocType() string { return b.docType }
func (b base) Version() int    { return b.version }

func (b base) PhysicalKey() string {
	return domain.PhysicalKey(b.name, b.version)
}

func (b base) Items() Items {
	return Items{PhysicalKey: b.PhysicalKey(), LogicalName: b.name}
}

// Physical substitutes the declared default for an absent value.
func (b base) Physical(value any) map[string]any {
	if value == nil {
		value = b.def
	}
	return map[string]any{b.PhysicalKey(): value}
}

// requiredErr records the missing-value error when the field is required.
// It reports whether validation should stop (the value is absent).
func (b base) requiredErr(value any, r *validation.Result) bool {
	if value != nil {
		return false
	}
	if b.required {
		r.Add(b.name, "is required")
	}
	return true
}

var commonAttrs = map[string]bool{
	"type": true, "version": true, "required": true, "default": true,
}

// checkAttrs fails with a ConfigError listing every attribute outside the
// kind's whitelist.
func (b base) checkAttrs(attrs map[string]any, allowed ...string) error {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	var unknown []string
	for k := range attrs {
		if !commonAttrs[k] && !set[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &domain.ConfigError{DocType: b.docType, Field: b.name, Unknown: unknown}
}
