package schema

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/verdex/internal/domain"
	"github.com/kailas-cloud/verdex/internal/domain/field"
	"github.com/kailas-cloud/verdex/internal/domain/registry"
	"github.com/kailas-cloud/verdex/internal/store"
)

// Internal doc types backing the registry itself.
const (
	SchemasDocType  = "schemas"
	TagsDocType     = "tags"
	BranchesDocType = "branches"
)

type multiSearcher interface {
	MultiSearch(ctx context.Context, specs []store.SearchSpec) ([]store.SearchResult, error)
	IndexFor(docType string) string
}

// Compiler turns a raw schema into a Definition, an index mapping, a
// persistable schema document and a field-version batch. All remote lookups
// the compilation needs are issued as a single multi-search.
type Compiler struct {
	store  multiSearcher
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewCompiler(s multiSearcher, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{store: s, logger: logger, now: time.Now, newID: uuid.NewString}
}

// Input is one compilation request.
type Input struct {
	DocType  string
	Raw      map[string]any
	Identity domain.Identity
	Tag      string
	Branch   string
}

// Output is everything a compilation produces. Issues is keyed by field name
// and holds non-fatal findings (unresolved link targets, skipped fields);
// referential problems never abort the compilation.
type Output struct {
	Definition *Definition
	Mapping    map[string]any
	DefMapping map[string]any
	SchemaDoc  map[string]any
	Versions   []registry.FieldVersion
	Issues     map[string][]string
	TagDoc     map[string]any
	BranchDoc  map[string]any
}

// Compile runs the three compilation phases: collect (instantiate fields),
// resolve (one batched multi-search for link targets, tag and branch) and
// compile (mapping, schema document, version batch).
func (c *Compiler) Compile(ctx context.Context, in Input) (Output, error) {
	if in.DocType == "" {
		return Output{}, fmt.Errorf("%w: doc type is required", domain.ErrInvalidSchema)
	}
	raw, err := ParseRaw(in.Raw)
	if err != nil {
		return Output{}, err
	}

	out := Output{Issues: map[string][]string{}}
	def := c.collect(in.DocType, raw, &out)
	out.Definition = def

	remote, err := c.resolve(ctx, def, in, &out)
	if err != nil {
		return Output{}, err
	}

	c.compile(def, in, remote, &out)
	return out, nil
}

// Load rebuilds a definition from a stored raw schema. No remote lookups are
// made; link targets are taken on trust since registration already checked
// them.
func Load(docType string, payload map[string]any, logger *zap.Logger) (*Definition, error) {
	raw, err := ParseRaw(payload)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return buildDefinition(docType, raw, logger, map[string][]string{}), nil
}

func (c *Compiler) collect(docType string, raw Raw, out *Output) *Definition {
	return buildDefinition(docType, raw, c.logger, out.Issues)
}

// buildDefinition instantiates every declared field, normalising the unique
// sugar into a not-exists validation against the field's own path. A field
// whose configuration is rejected is recorded as an issue and skipped, so a
// whole schema's problems surface in one pass.
func buildDefinition(docType string, raw Raw, logger *zap.Logger, issues map[string][]string) *Definition {
	def := &Definition{
		DocType:     docType,
		Meta:        raw.Meta,
		fields:      map[string]field.Field{},
		validations: map[string][]string{},
	}

	names := make([]string, 0, len(raw.Fields))
	for name := range raw.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		attrs := raw.Fields[name]
		// Both spellings of the uniqueness sugar normalise to the same
		// not-exists validation.
		if boolVal(attrs["unique"]) || boolVal(attrs["is-unique"]) {
			delete(attrs, "unique")
			delete(attrs, "is-unique")
			attrs["validations"] = appendName(attrs["validations"], "unique")
			def.Meta.Validations[name+".unique"] = Validation{
				Type:  ValidationNotExists,
				Path:  docType + "." + name,
				Value: SelfValue,
			}
		}

		f, err := field.New(docType, name, attrs)
		if err != nil {
			logger.Warn("field rejected",
				zap.String("doc_type", docType), zap.String("field", name), zap.Error(err))
			issues[name] = append(issues[name], err.Error())
			continue
		}
		def.fields[name] = f
		def.order = append(def.order, name)
		def.validations[name] = stringList(attrs["validations"])
	}
	return def
}

// resolve issues the compilation's single multi-search: one sub-query per
// distinct link target, plus one for the tag and one for the branch when
// requested. Sub-queries are ordered link targets (sorted), tag, branch.
func (c *Compiler) resolve(ctx context.Context, def *Definition, in Input,
	out *Output) (map[string]map[string]any, error) {

	targets := def.LinkTargets()
	specs := make([]store.SearchSpec, 0, len(targets)+2)
	for _, t := range targets {
		specs = append(specs, termSpec(c.store.IndexFor(SchemasDocType), map[string]any{
			"doc_type__v1": t,
		}))
	}
	if in.Tag != "" {
		specs = append(specs, termSpec(c.store.IndexFor(TagsDocType), map[string]any{
			"doc_type": in.DocType, "slug": in.Tag,
		}))
	}
	if in.Branch != "" {
		specs = append(specs, termSpec(c.store.IndexFor(BranchesDocType), map[string]any{
			"doc_type": in.DocType, "slug": in.Branch,
		}))
	}
	if len(specs) == 0 {
		return nil, nil
	}

	results, err := c.store.MultiSearch(ctx, specs)
	if err != nil {
		return nil, err
	}

	remote := make(map[string]map[string]any, len(targets))
	for i, t := range targets {
		if results[i].Total == 0 {
			for _, f := range def.Fields() {
				if l, ok := f.(interface{ Target() string }); ok && l.Target() == t {
					out.Issues[f.Name()] = append(out.Issues[f.Name()],
						fmt.Sprintf("referenced doc type %q is not registered", t))
				}
			}
			continue
		}
		remote[t] = results[i].Hits[0].Source
	}

	next := len(targets)
	if in.Tag != "" {
		if results[next].Total == 0 {
			return nil, fmt.Errorf("%w: tag %q not found for %s",
				domain.ErrNotFound, in.Tag, in.DocType)
		}
		out.TagDoc = results[next].Hits[0].Source
		next++
	}
	if in.Branch != "" {
		if results[next].Total == 0 {
			return nil, fmt.Errorf("%w: branch %q not found for %s",
				domain.ErrNotFound, in.Branch, in.DocType)
		}
		out.BranchDoc = results[next].Hits[0].Source
	}
	return remote, nil
}

func (c *Compiler) compile(def *Definition, in Input,
	remote map[string]map[string]any, out *Output) {

	props := map[string]any{
		domain.IDKey: map[string]any{"type": "keyword"},
	}
	defProps := map[string]any{}
	fieldDefs := make([]any, 0, len(def.order))
	created := c.now().UTC()

	for _, f := range def.Fields() {
		fragment := f.Mapping()
		if l, ok := f.(interface{ Target() string }); ok {
			substituteLinkMapping(fragment, f.PhysicalKey(), remote[l.Target()])
		}
		for k, v := range fragment {
			props[k] = v
		}
		for k, v := range f.DefMapping() {
			defProps[k] = v
		}
		fieldDefs = append(fieldDefs, f.DefPhysical())
		out.Versions = append(out.Versions, c.fieldVersions(in, "", f)...)
	}

	out.Mapping = map[string]any{"properties": props}
	out.DefMapping = map[string]any{"properties": map[string]any{
		domain.IDKey:     map[string]any{"type": "keyword"},
		"doc_type__v1":   map[string]any{"type": "keyword"},
		"created_on__v1": map[string]any{"type": "date"},
		"created_by__v1": map[string]any{"type": "keyword"},
		"fields__v1":     map[string]any{"type": "object", "properties": defProps},
		"definition__v1": map[string]any{"type": "object", "enabled": false},
		"mapping__v1":    map[string]any{"type": "object", "enabled": false},
	}}
	out.SchemaDoc = map[string]any{
		domain.IDKey:     in.DocType,
		"doc_type__v1":   in.DocType,
		"fields__v1":     fieldDefs,
		"definition__v1": in.Raw,
		"mapping__v1":    out.Mapping,
		"created_on__v1": created.Format(time.RFC3339),
		"created_by__v1": in.Identity.UserID,
	}
}

// fieldVersions registers the field and, for container kinds, every child
// under its dotted path.
func (c *Compiler) fieldVersions(in Input, prefix string, f field.Field) []registry.FieldVersion {
	name := f.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	versions := []registry.FieldVersion{{
		ID:        c.newID(),
		DocType:   in.DocType,
		FieldName: name,
		Version:   f.Version(),
		Type:      string(f.Kind()),
		IsActive:  true,
		Tag:       in.Tag,
		Branch:    in.Branch,
		CreatedOn: c.now().UTC(),
		CreatedBy: in.Identity.UserID,
	}}
	if container, ok := f.(field.Container); ok {
		children := container.Children()
		childNames := make([]string, 0, len(children))
		for n := range children {
			childNames = append(childNames, n)
		}
		sort.Strings(childNames)
		for _, n := range childNames {
			versions = append(versions, c.fieldVersions(in, name, children[n])...)
		}
	}
	return versions
}

// substituteLinkMapping merges the referenced schema's own mapping properties
// into the link fragment, so searches can address remote fields through the
// relation key.
func substituteLinkMapping(fragment map[string]any, physKey string, remoteDoc map[string]any) {
	if remoteDoc == nil {
		return
	}
	remoteMapping, ok := remoteDoc["mapping__v1"].(map[string]any)
	if !ok {
		return
	}
	remoteProps, ok := remoteMapping["properties"].(map[string]any)
	if !ok {
		return
	}
	link, ok := fragment[physKey].(map[string]any)
	if !ok {
		return
	}
	props, ok := link["properties"].(map[string]any)
	if !ok {
		return
	}
	for k, v := range remoteProps {
		if k == domain.IDKey {
			continue
		}
		props[k] = v
	}
}

func termSpec(index string, terms map[string]any) store.SearchSpec {
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	filters := make([]any, 0, len(keys))
	for _, k := range keys {
		filters = append(filters, map[string]any{"term": map[string]any{k: terms[k]}})
	}
	return store.SearchSpec{Index: index, Body: map[string]any{
		"size":  1,
		"query": map[string]any{"bool": map[string]any{"filter": filters}},
	}}
}

func boolVal(v any) bool {
	b, _ := v.(bool)
	return b
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, el := range list {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func appendName(v any, name string) []any {
	switch list := v.(type) {
	case []any:
		return append(list, name)
	case []string:
		out := make([]any, 0, len(list)+1)
		for _, s := range list {
			out = append(out, s)
		}
		return append(out, name)
	}
	return []any{name}
}
