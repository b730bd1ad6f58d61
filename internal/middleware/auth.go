package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/auth"
	"github.com/Sapuran-Berperan/fleet-portal/internal/screen"
	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionAuth resolves the session cookie and enforces sign-in
type SessionAuth struct {
	sessions  *session.Manager
	inspector *auth.TokenInspector
	screens   *screen.Registry
	loginPath string
	logger    *zap.Logger
}

// NewSessionAuth creates the session middleware
func NewSessionAuth(sessions *session.Manager, inspector *auth.TokenInspector, screens *screen.Registry, loginPath string, logger *zap.Logger) *SessionAuth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionAuth{
		sessions:  sessions,
		inspector: inspector,
		screens:   screens,
		loginPath: loginPath,
		logger:    logger,
	}
}

// Require rejects requests without a live session and ends sessions whose
// backend token has expired
func (a *SessionAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessions.Load(r.Context(), r)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				a.logger.Error("failed to load session", zap.Error(err))
				respondUnavailable(w, "Session service unavailable. Please try again later.")
				return
			}
			RedirectToLogin(w, r, a.loginPath, "Authentication required")
			return
		}

		if _, err := a.inspector.Inspect(sess.JWT); err != nil {
			a.logger.Info("ending session with unusable token",
				zap.String("user", sess.Username), zap.Error(err))
			a.Expire(w, r, sess)
			return
		}

		// Store session in context
		ctx := context.WithValue(r.Context(), SessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Expire clears the session wholesale, drops its screen state and sends the
// client to the login entry point
func (a *SessionAuth) Expire(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if sess != nil {
		a.screens.Drop(sess.ID)
	}
	if err := a.sessions.Destroy(r.Context(), w, sess); err != nil {
		a.logger.Error("failed to destroy session", zap.Error(err))
	}
	RedirectToLogin(w, r, a.loginPath, "Your session has expired. Please sign in again.")
}

// RequireUserType only lets sessions of the given user type through
func RequireUserType(userType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok {
				respondUnauthorized(w, "Authentication required")
				return
			}
			if sess.UserType != userType {
				respondForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSession retrieves the session from the request context
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*session.Session)
	return sess, ok
}

// WithSession returns ctx carrying sess
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

type redirectBody struct {
	Meta struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	} `json:"meta"`
	Data struct {
		Redirect string `json:"redirect"`
	} `json:"data"`
}

// RedirectToLogin answers with 303 See Other to the login path. The body
// carries the standard envelope for clients that do not follow redirects.
func RedirectToLogin(w http.ResponseWriter, r *http.Request, loginPath, message string) {
	var body redirectBody
	body.Meta.Message = message
	body.Data.Redirect = loginPath

	w.Header().Set("Location", loginPath)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusSeeOther)
	json.NewEncoder(w).Encode(body)
}

// respondUnavailable sends a 503 response with the standard format
func respondUnavailable(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(`{"meta":{"success":false,"message":"` + message + `"},"data":null}`))
}

// respondUnauthorized sends a 401 response with the standard format
func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"meta":{"success":false,"message":"` + message + `"},"data":null}`))
}

// respondForbidden sends a 403 response with the standard format
func respondForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"meta":{"success":false,"message":"` + message + `"},"data":null}`))
}
