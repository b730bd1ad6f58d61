package paging

import (
	"sync"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// Paginator slices an in-memory array into fixed-size pages
type Paginator[T any] struct {
	mu          sync.RWMutex
	items       []T
	pageSize    int
	currentPage int
	totalPages  int
}

// NewPaginator starts on the first page. A non-positive pageSize falls back to the default.
func NewPaginator[T any](items []T, pageSize int) *Paginator[T] {
	p := &Paginator[T]{pageSize: normalizePageSize(pageSize)}
	p.setItems(items)
	return p
}

// UpdateItems replaces the backing array and clamps the current page into range
func (p *Paginator[T]) UpdateItems(items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setItems(items)
}

func (p *Paginator[T]) setItems(items []T) {
	if items == nil {
		items = []T{}
	}
	p.items = items
	p.totalPages = TotalPages(len(items), p.pageSize)
	if p.currentPage > p.totalPages-1 {
		p.currentPage = p.totalPages - 1
	}
	if p.currentPage < 0 {
		p.currentPage = 0
	}
}

// CurrentPageItems returns the items of the current page
func (p *Paginator[T]) CurrentPageItems() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()

	start := p.currentPage * p.pageSize
	if start >= len(p.items) {
		return []T{}
	}
	end := start + p.pageSize
	if end > len(p.items) {
		end = len(p.items)
	}
	page := make([]T, end-start)
	copy(page, p.items[start:end])
	return page
}

// NextPage advances one page; false on the last page
func (p *Paginator[T]) NextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentPage >= p.totalPages-1 {
		return false
	}
	p.currentPage++
	return true
}

// PreviousPage goes back one page; false on the first page
func (p *Paginator[T]) PreviousPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentPage <= 0 {
		return false
	}
	p.currentPage--
	return true
}

// GoToPage jumps to the 0-based page n; false when n is out of range
func (p *Paginator[T]) GoToPage(n int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 0 || n >= p.totalPages {
		return false
	}
	p.currentPage = n
	return true
}

// CurrentPage returns the 0-based current page
func (p *Paginator[T]) CurrentPage() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentPage
}

// TotalPages returns the page count, at least 1
func (p *Paginator[T]) TotalPages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalPages
}

// Info returns the pagination labels for the current page
func (p *Paginator[T]) Info() model.PageInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return NewInfo(p.currentPage, p.pageSize, p.totalPages, len(p.items))
}

// State returns the paging state of the paginator
func (p *Paginator[T]) State() model.PagingState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return model.PagingState{
		CurrentPage:   p.currentPage,
		PageSize:      p.pageSize,
		TotalPages:    p.totalPages,
		TotalElements: len(p.items),
	}
}
