package model

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultPageSize is the page size used by every list screen unless configured otherwise
const DefaultPageSize = 10

// FilterAll is the select value that means "no constraint"
const FilterAll = "all"

// Page is the backend's paged response envelope
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}

// TotalPages returns ceil(totalElements/pageSize), never less than 1
func TotalPages(totalElements, pageSize int) int {
	if pageSize <= 0 || totalElements <= 0 {
		return 1
	}
	pages := totalElements / pageSize
	if totalElements%pageSize > 0 {
		pages++
	}
	return pages
}

// PageQuery describes one outbound list request
type PageQuery struct {
	Page    int
	Size    int
	Filters FilterState
}

// Values encodes the query as URL parameters. Inactive filters are omitted.
func (q PageQuery) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("size", strconv.Itoa(q.Size))
	for key, value := range q.Filters.Active() {
		values.Set(key, value)
	}
	return values
}

// PagingState is the paging half of a list screen's state
type PagingState struct {
	CurrentPage   int `json:"currentPage"`
	PageSize      int `json:"pageSize"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}

// PageInfo holds the pagination labels and button states shown under a list
type PageInfo struct {
	CurrentPage int  `json:"currentPage"` // 1-based
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
	StartItem   int  `json:"startItem"`
	EndItem     int  `json:"endItem"`
	TotalItems  int  `json:"totalItems"`
}

// FilterState maps a filter name to its current value
type FilterState map[string]string

// IsActive reports whether a filter value constrains the result set
func IsActive(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.EqualFold(value, FilterAll)
}

// Active returns only the filters that constrain the result set, trimmed
func (f FilterState) Active() FilterState {
	active := make(FilterState, len(f))
	for key, value := range f {
		if IsActive(value) {
			active[key] = strings.TrimSpace(value)
		}
	}
	return active
}

// Restrict drops every key not in keys
func (f FilterState) Restrict(keys []string) FilterState {
	restricted := make(FilterState, len(keys))
	for _, key := range keys {
		if value, ok := f[key]; ok {
			restricted[key] = value
		}
	}
	return restricted
}

// Get returns the active value of key, or "" when the filter is unset or "all"
func (f FilterState) Get(key string) string {
	value := f[key]
	if !IsActive(value) {
		return ""
	}
	return strings.TrimSpace(value)
}

// Clone returns a copy that can be mutated independently
func (f FilterState) Clone() FilterState {
	clone := make(FilterState, len(f))
	for key, value := range f {
		clone[key] = value
	}
	return clone
}

// Keys returns the filter names in sorted order
func (f FilterState) Keys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
