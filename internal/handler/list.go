package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/paging"
	"github.com/Sapuran-Berperan/fleet-portal/internal/screen"
)

// openList resolves the {resource} list of the signed-in session. It writes
// the error response and returns false when the list cannot be opened.
func (p *Portal) openList(w http.ResponseWriter, r *http.Request) (*screen.Workspace, screen.List, bool) {
	resource, ok := resourceParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown resource", nil)
		return nil, nil, false
	}

	_, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return nil, nil, false
	}

	list, err := ws.List(resource)
	if err != nil {
		if errors.Is(err, screen.ErrUnsupportedResource) {
			respondError(w, http.StatusNotFound, "Unknown resource", nil)
			return nil, nil, false
		}
		p.logger.Error("failed to open list", zap.String("resource", resource.String()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to open list", nil)
		return nil, nil, false
	}
	return ws, list, true
}

// ViewList returns the current view of a list. The first view loads page 0
// with no filters.
func (p *Portal) ViewList(w http.ResponseWriter, r *http.Request) {
	ws, list, ok := p.openList(w, r)
	if !ok {
		return
	}

	var err error
	if !list.Loaded() {
		err = list.Load(r.Context(), 0, nil)
	}
	p.respondList(w, r, ws, list, err, "List retrieved successfully")
}

// ApplyFilters replaces the filters of a list and returns to its first page
func (p *Portal) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	ws, list, ok := p.openList(w, r)
	if !ok {
		return
	}

	resource, _ := resourceParam(r)
	filters, details := ParseFilters(r, resource)
	if len(details) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", details)
		return
	}

	err := list.ApplyFilters(r.Context(), filters)
	p.respondList(w, r, ws, list, err, "Filters applied")
}

// ChangePage moves a list to another page. Pages outside the current range
// leave the list as it is.
func (p *Portal) ChangePage(w http.ResponseWriter, r *http.Request) {
	ws, list, ok := p.openList(w, r)
	if !ok {
		return
	}

	page, err := ParsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed", map[string]string{"page": err.Error()})
		return
	}

	changed, err := list.ChangePage(r.Context(), page)
	message := "Page changed"
	if err == nil && !changed {
		message = "Page unchanged"
	}
	p.respondList(w, r, ws, list, err, message)
}

// respondList writes the list view after an operation. A failed load still
// answers with the (empty) view so the screen stays renderable.
func (p *Portal) respondList(w http.ResponseWriter, r *http.Request, ws *screen.Workspace, list screen.List, err error, message string) {
	if p.handleAuthExpired(w, r, ws, err) {
		return
	}

	view := list.View()
	if m, ok := ws.Metrics(view.Resource); ok {
		view.Metrics = &m
	}

	switch {
	case err == nil:
		respondSuccess(w, http.StatusOK, message, view)
	case errors.Is(err, paging.ErrStaleResponse):
		respondSuccess(w, http.StatusOK, "Superseded by a newer request", view)
	default:
		be := backend.AsError(err)
		p.logger.Warn("list operation failed",
			zap.String("resource", view.Resource.String()),
			zap.String("kind", be.Kind.String()),
			zap.Error(err))
		respondJSON(w, be.HTTPStatus(), Response{
			Meta: Meta{Success: false, Message: be.UserMessage()},
			Data: view,
		})
	}
}
