package model

import "strings"

// Resource names a backend collection
type Resource string

const (
	ResourceBoats        Resource = "boats"
	ResourceOwners       Resource = "owners"
	ResourceMaintenances Resource = "maintenances"
	ResourcePayments     Resource = "payments"
)

// Resources lists every collection in dashboard order
var Resources = []Resource{ResourceBoats, ResourceOwners, ResourceMaintenances, ResourcePayments}

var filterKeys = map[Resource][]string{
	ResourceBoats:        {"search", "type", "status"},
	ResourceMaintenances: {"search", "status", "type"},
	ResourcePayments:     {"search", "reason", "month", "status"},
	ResourceOwners:       {"search", "status", "role"},
}

// ParseResource maps a path segment to a known resource
func ParseResource(s string) (Resource, bool) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	_, ok := filterKeys[r]
	return r, ok
}

// FilterKeys returns the filter names the backend recognizes for r
func (r Resource) FilterKeys() []string {
	return filterKeys[r]
}

func (r Resource) String() string {
	return string(r)
}

// Matcher is implemented by records that can be filtered locally
type Matcher interface {
	Matches(f FilterState) bool
}

// containsFold reports whether any of fields contains needle, case-insensitively
func containsFold(needle string, fields ...string) bool {
	needle = strings.ToLower(needle)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// equalFilter is true when the filter is inactive or equals value ignoring case
func equalFilter(f FilterState, key, value string) bool {
	want := f.Get(key)
	return want == "" || strings.EqualFold(want, value)
}
