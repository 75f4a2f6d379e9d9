package field

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/validation"
)

// WireFormat is the fixed datetime wire format for stored values and range
// bound comparison.
const WireFormat = time.RFC3339

type dateTimeField struct {
	base
	min          *time.Time
	max          *time.Time
	isCreateDate bool
	isTimestamp  bool
}

func newDateTime(b base, attrs map[string]any) (Field, error) {
	if err := b.checkAttrs(attrs, "min_value", "max_value", "is_create_date", "is_timestamp"); err != nil {
		return nil, err
	}
	f := &dateTimeField{
		base:         b,
		isCreateDate: boolAttr(attrs, "is_create_date"),
		isTimestamp:  boolAttr(attrs, "is_timestamp"),
	}
	// A field cannot declare both an explicit value and an auto-generated one.
	if _, hasDefault := attrs["default"]; hasDefault && (f.isCreateDate || f.isTimestamp) {
		return nil, &domain.ConfigError{DocType: b.docType, Field: b.name,
			Reason: "default value cannot be combined with is_create_date/is_timestamp"}
	}
	var err error
	if f.min, err = timePtrAttr(attrs, "min_value"); err != nil {
		return nil, &domain.ConfigError{DocType: b.docType, Field: b.name, Reason: err.Error()}
	}
	if f.max, err = timePtrAttr(attrs, "max_value"); err != nil {
		return nil, &domain.ConfigError{DocType: b.docType, Field: b.name, Reason: err.Error()}
	}
	return f, nil
}

func timePtrAttr(attrs map[string]any, key string) (*time.Time, error) {
	s := stringAttr(attrs, key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(WireFormat, s)
	if err != nil {
		return nil, fmt.Errorf("%s must use format %s: %v", key, WireFormat, err)
	}
	return &t, nil
}

func (f *dateTimeField) Kind() Kind { return DateTime }

func (f *dateTimeField) Validate(value any, _ DocContext, _ ExternalResults) validation.Result {
	var r validation.Result
	if value == nil {
		// An auto-generated field gets its value at projection time.
		if f.required && !f.isCreateDate && !f.isTimestamp {
			r.Add(f.name, "is required")
		}
		return r
	}
	s, ok := value.(string)
	if !ok {
		r.Add(f.name, "must be a datetime string")
		return r
	}
	t, err := time.Parse(WireFormat, s)
	if err != nil {
		r.Add(f.name, fmt.Sprintf("must be a datetime in %s format", WireFormat))
		return r
	}
	if f.min != nil && t.Before(*f.min) {
		r.Add(f.name, fmt.Sprintf("must not be before %s", f.min.Format(WireFormat)))
	}
	if f.max != nil && t.After(*f.max) {
		r.Add(f.name, fmt.Sprintf("must not be after %s", f.max.Format(WireFormat)))
	}
	return r
}

// Physical substitutes the current time for auto-generated fields with no
// incoming value.
func (f *dateTimeField) Physical(value any) map[string]any {
	if value == nil && (f.isCreateDate || f.isTimestamp) {
		value = time.Now().UTC().Format(WireFormat)
	}
	return f.base.Physical(value)
}

func (f *dateTimeField) Mapping() map[string]any {
	return map[string]any{f.PhysicalKey(): map[string]any{
		"type":   "date",
		"format": "strict_date_optional_time",
	}}
}

func (f *dateTimeField) DefPhysical() map[string]any {
	def := f.defBase(DateTime)
	if f.min != nil {
		def[defKey("min_value")] = f.min.Format(WireFormat)
	}
	if f.max != nil {
		def[defKey("max_value")] = f.max.Format(WireFormat)
	}
	if f.isCreateDate {
		def[defKey("is_create_date")] = true
	}
	if f.isTimestamp {
		def[defKey("is_timestamp")] = true
	}
	return def
}

func (f *dateTimeField) DefMapping() map[string]any {
	m := defBaseMapping()
	m[defKey("min_value")] = map[string]any{"type": "date"}
	m[defKey("max_value")] = map[string]any{"type": "date"}
	m[defKey("is_create_date")] = map[string]any{"type": "boolean"}
	m[defKey("is_timestamp")] = map[string]any{"type": "boolean"}
	return m
}
