package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Manager ties sessions to a cookie
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// NewManager creates a Manager
func NewManager(store Store, cookieName string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		now:        time.Now,
	}
}

// Load returns the session named by the request cookie, or ErrNotFound
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if cookie.Value == "" {
		return nil, ErrNotFound
	}
	return m.store.Load(ctx, cookie.Value)
}

// Start persists a new session for a signed-in user and sets the cookie.
// ttl caps the configured lifetime, typically at the token's expiry; zero
// or negative keeps the configured lifetime.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, s *Session, ttl time.Duration) error {
	if ttl <= 0 || ttl > m.ttl {
		ttl = m.ttl
	}

	s.ID = uuid.NewString()
	s.CreatedAt = m.now().UTC()
	if err := m.store.Save(ctx, s, ttl); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  m.now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
	return nil
}

// Destroy removes the session and expires the cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	m.clearCookie(w)
	if s == nil || s.ID == "" {
		return nil
	}
	return m.store.Delete(ctx, s.ID)
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName returns the cookie identifier used for sessions
func (m *Manager) CookieName() string {
	return m.cookieName
}
