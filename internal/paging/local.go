package paging

import (
	"sync"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// Predicate decides whether a record passes the active filters
type Predicate[T any] func(item T, filters model.FilterState) bool

// MatchFilters is the predicate for records that implement model.Matcher
func MatchFilters[T model.Matcher](item T, filters model.FilterState) bool {
	return item.Matches(filters)
}

// LocalList keeps a fully loaded dataset and pages through its filtered view
type LocalList[T any] struct {
	mu      sync.Mutex
	source  []T
	filters model.FilterState
	match   Predicate[T]
	pager   *Paginator[T]
}

// NewLocalList builds a list over source with no active filters
func NewLocalList[T any](source []T, pageSize int, match Predicate[T]) *LocalList[T] {
	l := &LocalList[T]{
		source:  source,
		filters: model.FilterState{},
		match:   match,
	}
	l.pager = NewPaginator(l.filtered(), pageSize)
	return l
}

// SetSource replaces the dataset, keeping the active filters and clamping the page
func (l *LocalList[T]) SetSource(source []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.source = source
	l.pager.UpdateItems(l.filtered())
}

// ApplyFilters recomputes the filtered view and returns to the first page
func (l *LocalList[T]) ApplyFilters(filters model.FilterState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filters = filters.Clone()
	l.pager.UpdateItems(l.filtered())
	l.pager.GoToPage(0)
}

// Filters returns a copy of the active filters
func (l *LocalList[T]) Filters() model.FilterState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters.Clone()
}

// Pager exposes the paginator over the filtered view
func (l *LocalList[T]) Pager() *Paginator[T] {
	return l.pager
}

func (l *LocalList[T]) filtered() []T {
	out := make([]T, 0, len(l.source))
	for _, item := range l.source {
		if l.match == nil || l.match(item, l.filters) {
			out = append(out, item)
		}
	}
	return out
}
