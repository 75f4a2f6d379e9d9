// Package search translates generic search payloads into the store's native
// filtered bool-query form.
package search

import (
	"sort"
	"strings"
)

// Default sizes and match tolerances.
const (
	defaultAggSize  = 20
	fuzziness       = "AUTO"
	cutoffFrequency = 0.001
)

// phraseFields is the fixed boosted field set full-text queries match
// against: the plain text plus prefix-, mid- and suffix-boosted variants.
var phraseFields = []string{
	"full_text",
	"full_text_prefix^3",
	"full_text_mid^2",
	"full_text_suffix^1.5",
}

// Filters groups mandatory and optional filter terms.
type Filters struct {
	Must   map[string]any `json:"must,omitempty"`
	Should map[string]any `json:"should,omitempty"`
}

// GroupByCounter requests term-aggregation buckets per listed field.
type GroupByCounter struct {
	Items []string `json:"items"`
	Size  int      `json:"size,omitempty"`
}

// Payload is the generic search request.
type Payload struct {
	Query          any             `json:"query,omitempty"`
	Filters        Filters         `json:"filters,omitempty"`
	Excludes       map[string]any  `json:"excludes,omitempty"`
	Sort           []any           `json:"sort,omitempty"`
	GroupByCounter *GroupByCounter `json:"group_by_counter,omitempty"`
	From           int             `json:"from,omitempty"`
	Size           int             `json:"size,omitempty"`
}

// Build translates a payload into the store's native query body.
func Build(p Payload) map[string]any {
	boolq := map[string]any{}

	if must := textClauses(p.Query); len(must) > 0 {
		boolq["must"] = must
	}
	filter := filterClauses(p.Filters.Must)
	if len(filter) > 0 {
		boolq["filter"] = filter
	}
	if should := filterClauses(p.Filters.Should); len(should) > 0 {
		boolq["should"] = should
		boolq["minimum_should_match"] = 1
	}
	if not := filterClauses(p.Excludes); len(not) > 0 {
		boolq["must_not"] = not
	}
	if len(boolq) == 0 {
		boolq["must"] = []any{map[string]any{"match_all": map[string]any{}}}
	}

	body := map[string]any{
		"query": map[string]any{"bool": boolq},
	}
	if len(p.Sort) > 0 {
		body["sort"] = p.Sort
	}
	if p.From > 0 {
		body["from"] = p.From
	}
	if p.Size > 0 {
		body["size"] = p.Size
	}
	if aggs := aggregations(p.GroupByCounter); len(aggs) > 0 {
		body["aggs"] = aggs
	}
	return body
}

// textClauses builds the full-text part of the query. A quoted string is
// matched as a phrase; an unquoted one with best-fields tolerance; a list of
// strings becomes an OR of phrase sub-queries.
func textClauses(query any) []any {
	switch q := query.(type) {
	case string:
		if q == "" {
			return nil
		}
		return []any{matchClause(q)}
	case []string:
		return []any{phraseShould(q)}
	case []any:
		items := make([]string, 0, len(q))
		for _, v := range q {
			if s, ok := v.(string); ok {
				items = append(items, s)
			}
		}
		if len(items) == 0 {
			return nil
		}
		return []any{phraseShould(items)}
	}
	return nil
}

func matchClause(q string) map[string]any {
	if quoted, ok := unquote(q); ok {
		return phraseMatch(quoted)
	}
	return map[string]any{
		"multi_match": map[string]any{
			"query":            q,
			"fields":           phraseFields,
			"type":             "best_fields",
			"fuzziness":        fuzziness,
			"cutoff_frequency": cutoffFrequency,
		},
	}
}

func phraseMatch(q string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":  q,
			"fields": phraseFields,
			"type":   "phrase",
		},
	}
}

func phraseShould(items []string) map[string]any {
	clauses := make([]any, 0, len(items))
	for _, item := range items {
		q := item
		if quoted, ok := unquote(item); ok {
			q = quoted
		}
		clauses = append(clauses, phraseMatch(q))
	}
	return map[string]any{
		"bool": map[string]any{
			"should":               clauses,
			"minimum_should_match": 1,
		},
	}
}

var rangeOps = []string{"gte", "gt", "lte", "lt"}

// filterClauses turns each filter entry into a range, terms or term clause.
func filterClauses(filters map[string]any) []any {
	if len(filters) == 0 {
		return nil
	}
	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, filterClause(f, filters[f]))
	}
	return out
}

func filterClause(field string, value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		if bounds := rangeBounds(v); len(bounds) > 0 {
			return map[string]any{"range": map[string]any{field: bounds}}
		}
	case []any:
		return map[string]any{"terms": map[string]any{field: v}}
	case []string:
		return map[string]any{"terms": map[string]any{field: v}}
	}
	return map[string]any{"term": map[string]any{field: value}}
}

func rangeBounds(v map[string]any) map[string]any {
	bounds := map[string]any{}
	for _, op := range rangeOps {
		if b, ok := v[op]; ok {
			bounds[op] = b
		}
	}
	return bounds
}

func aggregations(g *GroupByCounter) map[string]any {
	if g == nil || len(g.Items) == 0 {
		return nil
	}
	size := g.Size
	if size <= 0 {
		size = defaultAggSize
	}
	aggs := make(map[string]any, len(g.Items))
	for _, item := range g.Items {
		aggs[item] = map[string]any{
			"terms": map[string]any{"field": item, "size": size},
		}
	}
	return aggs
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1], true
	}
	return s, false
}
