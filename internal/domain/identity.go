package domain

// Identity carries the caller identity used to scope tag visibility and to
// stamp field-version registrations.
type Identity struct {
	UserID string
	Groups []string
}

// Anonymous is the zero identity used by unauthenticated internal callers.
var Anonymous = Identity{}

// InGroup reports whether the identity belongs to the named group.
func (i Identity) InGroup(group string) bool {
	for _, g := range i.Groups {
		if g == group {
			return true
		}
	}
	return false
}
