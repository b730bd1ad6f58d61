package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Sapuran-Berperan/fleet-portal/internal/auth"
	"github.com/Sapuran-Berperan/fleet-portal/internal/screen"
	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
)

func unsignedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := auth.Claims{
		Role:             "ROLE_ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt)},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type fixture struct {
	store    *session.MemoryStore
	sessions *session.Manager
	screens  *screen.Registry
	auth     *SessionAuth
}

func newFixture() *fixture {
	store := session.NewMemoryStore()
	sessions := session.NewManager(store, "fleet_session", time.Hour, false)
	screens := screen.NewRegistry(nil)
	return &fixture{
		store:    store,
		sessions: sessions,
		screens:  screens,
		auth:     NewSessionAuth(sessions, auth.NewTokenInspector("", 0), screens, "/login", nil),
	}
}

func (f *fixture) signIn(t *testing.T, token, userType string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	sess := &session.Session{JWT: token, UserType: userType, Username: "harbormaster", UserID: "7"}
	if err := f.sessions.Start(context.Background(), rec, sess, 0); err != nil {
		t.Fatalf("start session: %v", err)
	}
	return rec.Result().Cookies()[0]
}

func TestRequire_NoSession(t *testing.T) {
	f := newFixture()
	called := false
	h := f.auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/admin/boats", nil))

	if called {
		t.Error("expected handler not to be called")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

type brokenStore struct{}

func (brokenStore) Load(ctx context.Context, id string) (*session.Session, error) {
	return nil, errors.New("dial tcp 127.0.0.1:6379: connection refused")
}

func (brokenStore) Save(ctx context.Context, s *session.Session, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (brokenStore) Delete(ctx context.Context, id string) error {
	return errors.New("connection refused")
}

func TestRequire_StoreFailure(t *testing.T) {
	sessions := session.NewManager(brokenStore{}, "fleet_session", time.Hour, false)
	a := NewSessionAuth(sessions, auth.NewTokenInspector("", 0), screen.NewRegistry(nil), "/login", nil)
	h := a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("expected handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/portal/admin/boats", nil)
	req.AddCookie(&http.Cookie{Name: "fleet_session", Value: "abc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("expected no redirect, got %q", loc)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected session cookie to be left alone")
	}
}

func TestRedirectToLogin_EncodesPath(t *testing.T) {
	rec := httptest.NewRecorder()
	loginPath := `/sign-in?next="home"\x`
	RedirectToLogin(rec, httptest.NewRequest(http.MethodGet, "/", nil), loginPath, "Authentication required")

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status 303, got %d", rec.Code)
	}

	var body struct {
		Meta struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"meta"`
		Data struct {
			Redirect string `json:"redirect"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected valid JSON body, got %q: %v", rec.Body.String(), err)
	}
	if body.Data.Redirect != loginPath {
		t.Errorf("expected redirect %q, got %q", loginPath, body.Data.Redirect)
	}
	if body.Meta.Success || body.Meta.Message != "Authentication required" {
		t.Errorf("unexpected meta %+v", body.Meta)
	}
}

func TestRequire_ValidSession(t *testing.T) {
	f := newFixture()
	cookie := f.signIn(t, unsignedToken(t, time.Now().Add(time.Hour)), "ADMIN")

	var got *session.Session
	h := f.auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/portal/admin/boats", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got == nil || got.Username != "harbormaster" {
		t.Errorf("expected session in context, got %+v", got)
	}
}

func TestRequire_ExpiredTokenEndsSession(t *testing.T) {
	f := newFixture()
	cookie := f.signIn(t, unsignedToken(t, time.Now().Add(-time.Minute)), "ADMIN")
	f.screens.Workspace(&session.Session{ID: cookie.Value})

	h := f.auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("expected handler not to be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/portal/admin/boats", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status 303, got %d", rec.Code)
	}
	if _, err := f.store.Load(context.Background(), cookie.Value); err != session.ErrNotFound {
		t.Errorf("expected session to be deleted, got %v", err)
	}
	if f.screens.Len() != 0 {
		t.Errorf("expected screen state to be dropped, got %d workspaces", f.screens.Len())
	}
}

func TestRequireUserType(t *testing.T) {
	tests := []struct {
		name     string
		userType string
		expected int
	}{
		{name: "admin allowed", userType: "ADMIN", expected: http.StatusOK},
		{name: "owner rejected", userType: "OWNER", expected: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireUserType("ADMIN")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithSession(req.Context(), &session.Session{UserType: tt.userType}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rec.Code)
			}
		})
	}

	rec := httptest.NewRecorder()
	RequireUserType("ADMIN")(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without session, got %d", rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("expected status field 418, got %v", fields["status"])
	}
	if fields["path"] != "/health" {
		t.Errorf("expected path /health, got %v", fields["path"])
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("expected warn level, got %s", entries[0].Level)
	}
}
