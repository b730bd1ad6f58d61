package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/middleware"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
)

// Landing pages per user type
const (
	adminHome = "/portal/admin/dashboard"
	ownerHome = "/portal/owner/boats"
)

// LoginResponse is returned after a successful sign-in
type LoginResponse struct {
	User     model.SessionUser `json:"user"`
	Redirect string            `json:"redirect"`
}

// Login exchanges credentials with the backend and starts a session
func (p *Portal) Login(w http.ResponseWriter, r *http.Request) {
	// Parse request body
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	// Validate input
	if validationErrors := req.Validate(); len(validationErrors) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed", validationErrors)
		return
	}

	resp, err := p.client.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, backend.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid username or password", nil)
			return
		}
		p.logger.Error("login failed", zap.String("username", req.Username), zap.Error(err))
		respondBackendError(w, err)
		return
	}

	claims, err := p.inspector.Inspect(resp.JWT)
	if err != nil {
		p.logger.Error("backend issued an unusable token", zap.String("username", req.Username), zap.Error(err))
		respondError(w, http.StatusBadGateway, "Unexpected response from server.", nil)
		return
	}

	userType := model.NormalizeUserType(resp.Role)
	if userType == "" {
		userType = model.NormalizeUserType(claims.Role)
	}
	if userType != model.UserTypeAdmin && userType != model.UserTypeOwner {
		respondError(w, http.StatusForbidden, "This account cannot use the portal", nil)
		return
	}

	// A new sign-in replaces whatever session the browser still holds
	if old, err := p.sessions.Load(r.Context(), r); err == nil {
		p.screens.Drop(old.ID)
		if err := p.sessions.Destroy(r.Context(), w, old); err != nil {
			p.logger.Warn("failed to destroy previous session", zap.Error(err))
		}
	}

	sess := &session.Session{
		JWT:      resp.JWT,
		UserType: userType,
		Username: req.Username,
		UserID:   string(resp.ID),
	}
	ttl, _ := p.inspector.ExpiresIn(claims)
	if err := p.sessions.Start(r.Context(), w, sess, ttl); err != nil {
		p.logger.Error("failed to start session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to start session", nil)
		return
	}

	p.logger.Info("user signed in", zap.String("username", sess.Username), zap.String("user_type", userType))

	redirect := ownerHome
	if sess.IsAdmin() {
		redirect = adminHome
	}
	respondSuccess(w, http.StatusOK, "Login successful", LoginResponse{
		User:     sess.User(),
		Redirect: redirect,
	})
}

// Logout ends the session and drops its screen state
func (p *Portal) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := p.sessions.Load(r.Context(), r)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		p.logger.Error("failed to load session", zap.Error(err))
	}
	if sess != nil {
		p.screens.Drop(sess.ID)
	}
	if err := p.sessions.Destroy(r.Context(), w, sess); err != nil {
		p.logger.Error("failed to destroy session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to sign out", nil)
		return
	}

	respondSuccess(w, http.StatusOK, "Logged out", LoginResponse{Redirect: p.opts.LoginPath})
}

// Me returns the signed-in user
func (p *Portal) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	respondSuccess(w, http.StatusOK, "User retrieved successfully", sess.User())
}
