package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// validatable is a request body that reports field errors
type validatable interface {
	Validate() map[string]string
}

// newRequest returns an empty request body for resource
func newRequest(resource model.Resource) validatable {
	switch resource {
	case model.ResourceBoats:
		return &model.BoatRequest{}
	case model.ResourceOwners:
		return &model.OwnerRequest{}
	case model.ResourceMaintenances:
		return &model.MaintenanceRequest{}
	case model.ResourcePayments:
		return &model.PaymentRequest{}
	}
	return nil
}

// decodeMutation reads and validates the request body of resource
func decodeMutation(w http.ResponseWriter, r *http.Request, resource model.Resource) (validatable, bool) {
	req := newRequest(resource)
	if req == nil {
		respondError(w, http.StatusNotFound, "Unknown resource", nil)
		return nil, false
	}

	// Parse request body
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return nil, false
	}

	// Validate input
	if validationErrors := req.Validate(); len(validationErrors) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", validationErrors)
		return nil, false
	}
	return req, true
}

// recordID reads the {id} path parameter
func recordID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if n, err := strconv.ParseInt(id, 10, 64); err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid ID format", nil)
		return "", false
	}
	return id, true
}

// CreateRecord creates a record and refreshes the list and metrics
func (p *Portal) CreateRecord(w http.ResponseWriter, r *http.Request) {
	resource, ok := resourceParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown resource", nil)
		return
	}
	sess, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	req, ok := decodeMutation(w, r, resource)
	if !ok {
		return
	}

	record, err := backend.Create[json.RawMessage](r.Context(), p.client, sess.JWT, resource, req)
	if err != nil {
		p.mutationFailed(w, r, "create", resource, err)
		return
	}

	if err := p.afterMutation(r.Context(), ws, resource); p.handleAuthExpired(w, r, ws, err) {
		return
	}
	respondSuccess(w, http.StatusCreated, "Record created successfully", record)
}

// UpdateRecord replaces a record and refreshes the list and metrics
func (p *Portal) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	resource, ok := resourceParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown resource", nil)
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	sess, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	req, ok := decodeMutation(w, r, resource)
	if !ok {
		return
	}

	record, err := backend.Update[json.RawMessage](r.Context(), p.client, sess.JWT, resource, id, req)
	if err != nil {
		p.mutationFailed(w, r, "update", resource, err)
		return
	}

	if err := p.afterMutation(r.Context(), ws, resource); p.handleAuthExpired(w, r, ws, err) {
		return
	}
	respondSuccess(w, http.StatusOK, "Record updated successfully", record)
}

// DeleteRecord removes a record and refreshes the list and metrics
func (p *Portal) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	resource, ok := resourceParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown resource", nil)
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	sess, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	if err := p.client.Delete(r.Context(), sess.JWT, resource, id); err != nil {
		p.mutationFailed(w, r, "delete", resource, err)
		return
	}

	if err := p.afterMutation(r.Context(), ws, resource); p.handleAuthExpired(w, r, ws, err) {
		return
	}
	respondSuccess(w, http.StatusOK, "Record deleted successfully", nil)
}

// mutationFailed reports a rejected write. Nothing is rolled back.
func (p *Portal) mutationFailed(w http.ResponseWriter, r *http.Request, op string, resource model.Resource, err error) {
	_, ws, _ := p.workspace(r)
	if p.handleAuthExpired(w, r, ws, err) {
		return
	}
	p.logger.Warn("mutation failed",
		zap.String("op", op),
		zap.String("resource", resource.String()),
		zap.Error(err))
	respondBackendError(w, err)
}
