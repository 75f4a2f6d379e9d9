package pattern

import "testing"

func TestExistsValidate(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  bool
	}{
		{"no hits", 0, false},
		{"one hit", 1, true},
		{"many hits", 42, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Exists{Path: "id", Value: "abc"}
			if got := p.Validate(Result{Total: tt.total}); got != tt.want {
				t.Errorf("Exists.Validate(total=%d) = %v, want %v", tt.total, got, tt.want)
			}
		})
	}
}

func TestNotExistsValidate(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  bool
	}{
		{"no hits satisfies", 0, true},
		{"one hit violates", 1, false},
		{"many hits violate", 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NotExists{Path: "user__email__v1", Value: "a@b.c"}
			if got := p.Validate(Result{Total: tt.total}); got != tt.want {
				t.Errorf("NotExists.Validate(total=%d) = %v, want %v", tt.total, got, tt.want)
			}
		})
	}
}

func TestExistsAndNotExistsAreNegations(t *testing.T) {
	for total := 0; total <= 3; total++ {
		e := Exists{Path: "p", Value: "v"}.Validate(Result{Total: total})
		n := NotExists{Path: "p", Value: "v"}.Validate(Result{Total: total})
		if e == n {
			t.Errorf("total=%d: Exists=%v NotExists=%v, want negations", total, e, n)
		}
	}
}

func TestBuildQueryShape(t *testing.T) {
	q := NotExists{Path: "user__email__v1", Value: "a@b.c"}.BuildQuery("verdex_user")

	if q.Index != "verdex_user" {
		t.Fatalf("index = %q, want verdex_user", q.Index)
	}
	if q.Body["size"] != 0 {
		t.Errorf("size = %v, want 0", q.Body["size"])
	}
	boolq, ok := q.Body["query"].(map[string]any)["bool"].(map[string]any)
	if !ok {
		t.Fatalf("query.bool missing in %v", q.Body)
	}
	filters, ok := boolq["filter"].([]any)
	if !ok || len(filters) != 1 {
		t.Fatalf("filter = %v, want one clause", boolq["filter"])
	}
	term := filters[0].(map[string]any)["term"].(map[string]any)
	if term["user__email__v1"] != "a@b.c" {
		t.Errorf("term = %v, want user__email__v1=a@b.c", term)
	}
}
