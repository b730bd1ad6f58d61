package screen

import (
	"errors"
	"sync"
	"time"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
)

// ErrUnsupportedResource is returned when a session may not open a list for a resource
var ErrUnsupportedResource = errors.New("resource not available for this user")

// Factory builds the list screen for resource inside ws. It may wire the
// list's hooks to ws (metrics, expiry).
type Factory func(ws *Workspace, resource model.Resource) (List, error)

// Workspace is the screen state of one session
type Workspace struct {
	session *session.Session
	factory Factory

	mu       sync.Mutex
	lists    map[model.Resource]List
	metrics  map[model.Resource]model.Statistics
	expired  bool
	lastUsed time.Time
}

// Session returns the session the workspace belongs to
func (w *Workspace) Session() *session.Session {
	return w.session
}

// List returns the list screen for resource, creating it on first use
func (w *Workspace) List(resource model.Resource) (List, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if l, ok := w.lists[resource]; ok {
		return l, nil
	}
	l, err := w.factory(w, resource)
	if err != nil {
		return nil, err
	}
	w.lists[resource] = l
	return l, nil
}

// SetMetrics stores the latest statistics of a resource
func (w *Workspace) SetMetrics(s model.Statistics) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics[s.Resource] = s
}

// Metrics returns the latest statistics of a resource
func (w *Workspace) Metrics(resource model.Resource) (model.Statistics, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.metrics[resource]
	return s, ok
}

// MarkExpired records that the backend rejected the session's token
func (w *Workspace) MarkExpired() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expired = true
}

// Expired reports whether the backend rejected the session's token
func (w *Workspace) Expired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expired
}

// Registry holds one Workspace per live session
type Registry struct {
	factory Factory
	now     func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory:    factory,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Workspace returns the workspace of s, creating it on first use
func (r *Registry) Workspace(s *session.Session) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.workspaces[s.ID]
	if !ok {
		ws = &Workspace{
			session: s,
			factory: r.factory,
			lists:   make(map[model.Resource]List),
			metrics: make(map[model.Resource]model.Statistics),
		}
		r.workspaces[s.ID] = ws
	}

	ws.mu.Lock()
	ws.lastUsed = r.now()
	ws.mu.Unlock()
	return ws
}

// Drop discards the screen state of a session
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, sessionID)
}

// Sweep drops workspaces idle for longer than maxIdle and returns how many were removed
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	removed := 0
	for id, ws := range r.workspaces {
		ws.mu.Lock()
		idle := ws.lastUsed.Before(cutoff)
		ws.mu.Unlock()
		if idle {
			delete(r.workspaces, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}
