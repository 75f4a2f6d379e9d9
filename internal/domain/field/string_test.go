package field

import "testing"

func mustField(t *testing.T, docType, name string, attrs map[string]any) Field {
	t.Helper()
	f, err := New(docType, name, attrs)
	if err != nil {
		t.Fatalf("New(%s.%s): %v", docType, name, err)
	}
	return f
}

func TestStringLengthBounds(t *testing.T) {
	f := mustField(t, "user", "name", map[string]any{
		"type": "string", "min_length": 3, "max_length": 5,
	})
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"exactly min passes", "abc", true},
		{"below min fails", "ab", false},
		{"exactly max passes", "abcde", true},
		{"above max fails", "abcdef", false},
		{"between passes", "abcd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := f.Validate(tt.value, DocContext{}, nil)
			if r.OK() != tt.ok {
				t.Errorf("Validate(%q) ok=%v, want %v (errors: %v)", tt.value, r.OK(), tt.ok, r.Errors)
			}
		})
	}
}

func TestStringRequired(t *testing.T) {
	f := mustField(t, "user", "name", map[string]any{"type": "string", "required": true})
	if r := f.Validate(nil, DocContext{}, nil); r.OK() {
		t.Error("required field passed with nil value")
	}
	opt := mustField(t, "user", "nick", map[string]any{"type": "string"})
	if r := opt.Validate(nil, DocContext{}, nil); !r.OK() {
		t.Errorf("optional field failed with nil value: %v", r.Errors)
	}
}

func TestStringChoices(t *testing.T) {
	inline := mustField(t, "user", "role", map[string]any{
		"type": "string", "choices": []any{"admin", "editor"},
	})
	if r := inline.Validate("admin", DocContext{}, nil); !r.OK() {
		t.Errorf("member of inline choices rejected: %v", r.Errors)
	}
	if r := inline.Validate("guest", DocContext{}, nil); r.OK() {
		t.Error("non-member of inline choices accepted")
	}

	named := mustField(t, "user", "lang", map[string]any{
		"type": "string", "choices": "languages",
	})
	doc := DocContext{Choices: map[string][]string{"languages": {"en", "de"}}}
	if r := named.Validate("de", doc, nil); !r.OK() {
		t.Errorf("member of named choice set rejected: %v", r.Errors)
	}
	if r := named.Validate("fr", doc, nil); r.OK() {
		t.Error("non-member of named choice set accepted")
	}
}

func TestStringExternalValidationsShortCircuit(t *testing.T) {
	f := mustField(t, "user", "email", map[string]any{
		"type": "string", "validations": []any{"unique", "reserved"},
	})

	// First validation fails: the second must not contribute an error.
	r := f.Validate("a@b.c", DocContext{}, ExternalResults{
		"email.unique":   false,
		"email.reserved": false,
	})
	if r.OK() {
		t.Fatal("failing validation passed")
	}
	if len(r.Errors["email"]) != 1 {
		t.Errorf("errors = %v, want exactly one (short-circuit)", r.Errors["email"])
	}

	// All verdicts positive: passes.
	r = f.Validate("a@b.c", DocContext{}, ExternalResults{
		"email.unique":   true,
		"email.reserved": true,
	})
	if !r.OK() {
		t.Errorf("passing validations rejected: %v", r.Errors)
	}

	// Unresolved verdict counts as failure.
	r = f.Validate("a@b.c", DocContext{}, ExternalResults{"email.unique": true})
	if r.OK() {
		t.Error("unresolved validation passed")
	}
}

func TestStringMessageTemplate(t *testing.T) {
	f := mustField(t, "user", "email", map[string]any{
		"type": "string", "validations": []any{"unique"},
	})
	doc := DocContext{Messages: map[string]string{"unique": "email is taken"}}
	r := f.Validate("a@b.c", doc, ExternalResults{"email.unique": false})
	if got := r.First("email"); got != "email is taken" {
		t.Errorf("message = %q, want template override", got)
	}
}

func TestStringMapping(t *testing.T) {
	f := mustField(t, "user", "name", map[string]any{"type": "string", "version": 2})
	m := f.Mapping()
	frag, ok := m["name__v2"].(map[string]any)
	if !ok || frag["type"] != "keyword" {
		t.Errorf("Mapping = %v, want name__v2 keyword", m)
	}
}
