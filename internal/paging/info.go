// Package paging holds the list screen paging contract: a server-delegated
// controller that reconciles one backend page per request, and a client-side
// paginator that slices a fully loaded array.
package paging

import "github.com/Sapuran-Berperan/fleet-portal/internal/model"

// TotalPages returns ceil(totalElements/pageSize), never less than 1
func TotalPages(totalElements, pageSize int) int {
	return model.TotalPages(totalElements, pageSize)
}

// NewInfo computes the pagination labels for a 0-based page
func NewInfo(currentPage, pageSize, totalPages, totalElements int) model.PageInfo {
	end := (currentPage + 1) * pageSize
	if totalElements < end {
		end = totalElements
	}
	return model.PageInfo{
		CurrentPage: currentPage + 1,
		TotalPages:  totalPages,
		HasPrevious: currentPage > 0,
		HasNext:     currentPage < totalPages-1,
		StartItem:   currentPage*pageSize + 1,
		EndItem:     end,
		TotalItems:  totalElements,
	}
}

func normalizePageSize(pageSize int) int {
	if pageSize <= 0 {
		return model.DefaultPageSize
	}
	return pageSize
}
