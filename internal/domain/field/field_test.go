package field

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/verdex/internal/domain"
)

func TestNewDispatchesByKind(t *testing.T) {
	tests := []struct {
		typ  string
		want Kind
	}{
		{"string", String},
		{"number", Number},
		{"text", Text},
		{"check", Check},
		{"datetime", DateTime},
		{"list:string", List},
		{"link", Link},
		{"links", Links},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			attrs := map[string]any{"type": tt.typ}
			if tt.typ == "link" || tt.typ == "links" {
				attrs["doc_type"] = "tag"
			}
			f, err := New("user", "f", attrs)
			if err != nil {
				t.Fatalf("New(%s) error: %v", tt.typ, err)
			}
			if f.Kind() != tt.want {
				t.Errorf("Kind = %q, want %q", f.Kind(), tt.want)
			}
		})
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New("user", "f", map[string]any{"type": "blob"})
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
}

func TestNewRejectsUnknownAttributes(t *testing.T) {
	_, err := New("user", "name", map[string]any{
		"type":       "string",
		"min_length": 2,
		"analyzer":   "custom",
		"boost":      2,
	})
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	if len(cfgErr.Unknown) != 2 {
		t.Fatalf("Unknown = %v, want [analyzer boost]", cfgErr.Unknown)
	}
	if cfgErr.Unknown[0] != "analyzer" || cfgErr.Unknown[1] != "boost" {
		t.Errorf("Unknown = %v, want sorted [analyzer boost]", cfgErr.Unknown)
	}
}

func TestNewRejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "a__b", "id"} {
		if _, err := New("user", name, map[string]any{"type": "string"}); err == nil {
			t.Errorf("New(name=%q) succeeded, want error", name)
		}
	}
}

func TestPhysicalKeyUsesVersion(t *testing.T) {
	f, err := New("user", "name", map[string]any{"type": "string", "version": 3})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.PhysicalKey(); got != "name__v3" {
		t.Errorf("PhysicalKey = %q, want name__v3", got)
	}
	items := f.Items()
	if items.PhysicalKey != "name__v3" || items.LogicalName != "name" {
		t.Errorf("Items = %+v", items)
	}
}

func TestDefPhysicalIsVersionSuffixed(t *testing.T) {
	f, err := New("user", "age", map[string]any{"type": "number", "min_value": 0})
	if err != nil {
		t.Fatal(err)
	}
	def := f.DefPhysical()
	if def["name__v1"] != "age" {
		t.Errorf("name__v1 = %v, want age", def["name__v1"])
	}
	if def["type__v1"] != "number" {
		t.Errorf("type__v1 = %v, want number", def["type__v1"])
	}
	if _, ok := def["min_value__v1"]; !ok {
		t.Errorf("min_value__v1 missing from %v", def)
	}
	for key := range def {
		if _, _, ok := domain.ParsePhysicalKey(key); !ok {
			t.Errorf("def key %q is not version-suffixed", key)
		}
	}
}

func TestNewBuildsNestedContainers(t *testing.T) {
	f, err := New("user", "profile", map[string]any{
		"type": "map",
		"items": map[string]any{
			"city": map[string]any{"type": "string"},
			"geo": map[string]any{
				"type": "map",
				"items": map[string]any{
					"lat": map[string]any{"type": "number"},
					"lon": map[string]any{"type": "number"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Kind() != Map {
		t.Fatalf("Kind = %q", f.Kind())
	}
	c, ok := f.(Container)
	if !ok {
		t.Fatal("map field does not expose children")
	}
	geo, ok := c.Children()["geo"].(Container)
	if !ok {
		t.Fatal("nested map was not constructed as a container")
	}
	if lat := geo.Children()["lat"]; lat == nil || lat.Kind() != Number {
		t.Errorf("nested child = %v", lat)
	}
}

func TestPhysicalAppliesDeclaredDefault(t *testing.T) {
	f, err := New("user", "status", map[string]any{"type": "string", "default": "draft"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := f.Physical(nil)[f.PhysicalKey()]; got != "draft" {
		t.Errorf("Physical(nil) = %v, want declared default", got)
	}
	if got := f.Physical("live")[f.PhysicalKey()]; got != "live" {
		t.Errorf("Physical(live) = %v, default must not override a value", got)
	}
}
