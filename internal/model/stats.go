package model

import "strings"

// Counters holds named aggregate values for one resource
type Counters map[string]float64

// Add increments the named counter by delta
func (c Counters) Add(name string, delta float64) {
	c[name] += delta
}

// Statistics are the aggregate counters of a whole, unfiltered dataset
type Statistics struct {
	Resource Resource `json:"resource"`
	Counters Counters `json:"counters"`
	// Notice is set when the counters could not be refreshed
	Notice string `json:"notice,omitempty"`
}

// Tallier contributes one record to a set of counters
type Tallier interface {
	Tally(c Counters)
}

// counterKey builds keys like "status.in_progress"
func counterKey(prefix, value string) string {
	return prefix + "." + strings.ToLower(value)
}
