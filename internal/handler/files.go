package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
	"github.com/Sapuran-Berperan/fleet-portal/internal/screen"
	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
)

// uploadedFile reads the "file" part of a multipart request, bounded by the
// configured upload size.
func (p *Portal) uploadedFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, p.opts.UploadMaxBytes)
	if err := r.ParseMultipartForm(p.opts.UploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "File is too large", nil)
			return nil, "", false
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form", nil)
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed", map[string]string{"file": "file is required"})
		return nil, "", false
	}
	return file, header.Filename, true
}

// ownsPayment checks that an owner only touches their own payments
func (p *Portal) ownsPayment(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *screen.Workspace, id string) bool {
	if sess.IsAdmin() {
		return true
	}
	payment, err := backend.Get[model.Payment](r.Context(), p.client, sess.JWT, model.ResourcePayments, id)
	if err != nil {
		if !p.handleAuthExpired(w, r, ws, err) {
			respondBackendError(w, err)
		}
		return false
	}
	if strconv.FormatInt(payment.OwnerID, 10) != sess.UserID {
		respondError(w, http.StatusForbidden, "Insufficient permissions", nil)
		return false
	}
	return true
}

// UploadBoatDocument attaches a document to a boat
func (p *Portal) UploadBoatDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	sess, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	file, filename, ok := p.uploadedFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if err := p.client.UploadDocument(r.Context(), sess.JWT, model.ResourceBoats, id, filename, file); err != nil {
		p.mutationFailed(w, r, "upload document", model.ResourceBoats, err)
		return
	}

	if err := p.afterMutation(r.Context(), ws, model.ResourceBoats); p.handleAuthExpired(w, r, ws, err) {
		return
	}
	respondSuccess(w, http.StatusCreated, "Document uploaded successfully", nil)
}

// UploadReceipt attaches a receipt to a payment
func (p *Portal) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	sess, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	file, filename, ok := p.uploadedFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if !p.ownsPayment(w, r, sess, ws, id) {
		return
	}

	if err := p.client.UploadReceipt(r.Context(), sess.JWT, id, filename, file); err != nil {
		p.mutationFailed(w, r, "upload receipt", model.ResourcePayments, err)
		return
	}

	if err := p.afterMutation(r.Context(), ws, model.ResourcePayments); p.handleAuthExpired(w, r, ws, err) {
		return
	}
	respondSuccess(w, http.StatusCreated, "Receipt uploaded successfully", nil)
}

// DownloadReceipt streams a payment receipt to the client
func (p *Portal) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	sess, ws, ok := p.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	if !p.ownsPayment(w, r, sess, ws, id) {
		return
	}

	dl, err := p.client.DownloadReceipt(r.Context(), sess.JWT, id)
	if err != nil {
		if p.handleAuthExpired(w, r, ws, err) {
			return
		}
		p.logger.Warn("receipt download failed", zap.String("payment_id", id), zap.Error(err))
		respondBackendError(w, err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	if dl.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Body); err != nil {
		p.logger.Warn("receipt stream interrupted", zap.String("payment_id", id), zap.Error(err))
	}
}
