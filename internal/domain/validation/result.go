// Package validation defines the per-field validation result accumulated by
// field validators and returned to callers as a plain value.
package validation

// Result maps field names to their error messages. The zero value is a
// passing result.
type Result struct {
	Errors map[string][]string
}

// OK reports whether no errors were recorded.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Add records an error message for a field.
func (r *Result) Add(field, msg string) {
	if r.Errors == nil {
		r.Errors = make(map[string][]string)
	}
	r.Errors[field] = append(r.Errors[field], msg)
}

// Merge folds another result's errors into this one.
func (r *Result) Merge(other Result) {
	for field, msgs := range other.Errors {
		for _, msg := range msgs {
			r.Add(field, msg)
		}
	}
}

// First returns the first error recorded for a field, or "".
func (r Result) First(field string) string {
	if msgs := r.Errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}
