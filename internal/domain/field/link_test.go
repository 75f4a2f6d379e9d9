package field

import "testing"

func TestLinkValidatesThroughExternalResults(t *testing.T) {
	f := mustField(t, "post", "author", map[string]any{"type": "link", "doc_type": "user"})

	if r := f.Validate("u-1", DocContext{}, ExternalResults{"author.exists": true}); !r.OK() {
		t.Errorf("existing target rejected: %v", r.Errors)
	}
	if r := f.Validate("u-1", DocContext{}, ExternalResults{"author.exists": false}); r.OK() {
		t.Error("missing target accepted")
	}
	if r := f.Validate("u-1", DocContext{}, nil); r.OK() {
		t.Error("unresolved existence check accepted")
	}
}

func TestLinkPatterns(t *testing.T) {
	f := mustField(t, "post", "author", map[string]any{"type": "link", "doc_type": "user"})
	ps := f.(PatternSource).Patterns("u-1")
	if len(ps) != 1 {
		t.Fatalf("Patterns = %d entries, want 1", len(ps))
	}
	if ps[0].Key != "author.exists" || ps[0].Index != "user" {
		t.Errorf("pattern = %+v", ps[0])
	}
}

func TestLinkPhysicalNestsID(t *testing.T) {
	f := mustField(t, "post", "author", map[string]any{"type": "link", "doc_type": "user"})
	phys := f.Physical("u-1")
	rel, ok := phys["author__v1"].(map[string]any)
	if !ok || rel["id"] != "u-1" {
		t.Errorf("Physical = %v, want author__v1.id = u-1", phys)
	}
}

func TestLinksValidateEveryID(t *testing.T) {
	f := mustField(t, "post", "tags", map[string]any{"type": "links", "doc_type": "tag"})

	ext := ExternalResults{"tags.exists.0": true, "tags.exists.1": false}
	r := f.Validate([]any{"t-1", "t-2"}, DocContext{}, ext)
	if r.OK() {
		t.Fatal("missing second target accepted")
	}
	if len(r.Errors["tags"]) != 1 {
		t.Errorf("errors = %v, want one failure", r.Errors["tags"])
	}

	ext["tags.exists.1"] = true
	if r := f.Validate([]any{"t-1", "t-2"}, DocContext{}, ext); !r.OK() {
		t.Errorf("all-existing targets rejected: %v", r.Errors)
	}
}

func TestLinksPhysicalProducesStubs(t *testing.T) {
	f := mustField(t, "post", "tags", map[string]any{"type": "links", "doc_type": "tag"})
	phys := f.Physical([]any{"t-1", "t-2"})
	stubs, ok := phys["tags__v1"].([]any)
	if !ok || len(stubs) != 2 {
		t.Fatalf("Physical = %v, want two stubs", phys)
	}
	if stubs[0].(map[string]any)["id"] != "t-1" {
		t.Errorf("stub = %v", stubs[0])
	}
}

func TestLinkRequiresTargetDocType(t *testing.T) {
	if _, err := New("post", "author", map[string]any{"type": "link"}); err == nil {
		t.Error("link without doc_type accepted")
	}
}

func TestListValidatesElements(t *testing.T) {
	f := mustField(t, "post", "scores", map[string]any{"type": "list:number"})
	r := f.Validate([]any{1, 2.5, "three"}, DocContext{}, nil)
	if r.OK() {
		t.Fatal("mixed-type list accepted")
	}
	if len(r.Errors["scores"]) != 1 {
		t.Errorf("errors = %v, want one element failure", r.Errors["scores"])
	}

	if r := f.Validate([]any{1, 2, 3}, DocContext{}, nil); !r.OK() {
		t.Errorf("homogeneous list rejected: %v", r.Errors)
	}
}

func TestListElementKinds(t *testing.T) {
	tests := []struct {
		typ   string
		good  any
		bad   any
		mtype string
	}{
		{"list:string", "a", 1, "keyword"},
		{"list:number", 1.5, "x", "double"},
		{"list:check", true, "x", "boolean"},
		{"list:datetime", "2024-01-01T00:00:00Z", "soon", "date"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			f := mustField(t, "doc", "vals", map[string]any{"type": tt.typ})
			if r := f.Validate([]any{tt.good}, DocContext{}, nil); !r.OK() {
				t.Errorf("good element rejected: %v", r.Errors)
			}
			if r := f.Validate([]any{tt.bad}, DocContext{}, nil); r.OK() {
				t.Error("bad element accepted")
			}
			frag := f.Mapping()["vals__v1"].(map[string]any)
			if frag["type"] != tt.mtype {
				t.Errorf("mapping type = %v, want %s", frag["type"], tt.mtype)
			}
		})
	}
}

func TestListRejectsUnknownElementKind(t *testing.T) {
	if _, err := New("doc", "vals", map[string]any{"type": "list:map"}); err == nil {
		t.Error("list:map accepted")
	}
}
