package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/auth"
	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/middleware"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
	"github.com/Sapuran-Berperan/fleet-portal/internal/paging"
	"github.com/Sapuran-Berperan/fleet-portal/internal/screen"
	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
	"github.com/Sapuran-Berperan/fleet-portal/internal/stats"
)

const defaultUploadMaxBytes = 10 << 20

// Options tunes the portal handlers
type Options struct {
	PageSize       int
	UploadMaxBytes int64
	LoginPath      string
}

// Portal serves the admin and owner screens on top of the fleet backend
type Portal struct {
	client    *backend.Client
	sessions  *session.Manager
	inspector *auth.TokenInspector
	refresher *stats.Refresher
	screens   *screen.Registry
	guard     *middleware.SessionAuth
	opts      Options
	logger    *zap.Logger
}

// NewPortal creates the portal handlers
func NewPortal(client *backend.Client, sessions *session.Manager, inspector *auth.TokenInspector, opts Options, logger *zap.Logger) *Portal {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = model.DefaultPageSize
	}
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = defaultUploadMaxBytes
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}

	p := &Portal{
		client:    client,
		sessions:  sessions,
		inspector: inspector,
		refresher: stats.NewRefresher(client, logger),
		opts:      opts,
		logger:    logger,
	}
	p.screens = screen.NewRegistry(p.buildList)
	p.guard = middleware.NewSessionAuth(sessions, inspector, p.screens, opts.LoginPath, logger)
	return p
}

// Screens exposes the per-session screen registry
func (p *Portal) Screens() *screen.Registry {
	return p.screens
}

// buildList creates the list screen of resource for the workspace's user.
// Admins page through the backend; owners page locally over their own records.
func (p *Portal) buildList(ws *screen.Workspace, resource model.Resource) (screen.List, error) {
	if ws.Session().IsAdmin() {
		switch resource {
		case model.ResourceBoats:
			return adminList[model.Boat](p, ws, resource), nil
		case model.ResourceOwners:
			return adminList[model.Owner](p, ws, resource), nil
		case model.ResourceMaintenances:
			return adminList[model.Maintenance](p, ws, resource), nil
		case model.ResourcePayments:
			return adminList[model.Payment](p, ws, resource), nil
		}
		return nil, screen.ErrUnsupportedResource
	}

	switch resource {
	case model.ResourceBoats:
		return ownerList[model.Boat](p, ws, resource), nil
	case model.ResourceMaintenances:
		return ownerList[model.Maintenance](p, ws, resource), nil
	case model.ResourcePayments:
		return ownerList[model.Payment](p, ws, resource), nil
	}
	return nil, screen.ErrUnsupportedResource
}

func adminList[T any](p *Portal, ws *screen.Workspace, resource model.Resource) screen.List {
	fetch := backend.PageFetcher[T]{
		Client:   p.client,
		Token:    ws.Session().JWT,
		Resource: resource,
	}
	return screen.NewServerList[T](resource, fetch, p.opts.PageSize, screen.Hooks{
		OnAuthExpired: func(ctx context.Context) { ws.MarkExpired() },
		OnSettled:     func(ctx context.Context) { p.refreshMetrics(ctx, ws, resource) },
	}, p.logger)
}

type ownedRecord interface {
	model.Matcher
	model.Tallier
}

func ownerList[T ownedRecord](p *Portal, ws *screen.Workspace, resource model.Resource) screen.List {
	sess := ws.Session()
	source := func(ctx context.Context) ([]T, error) {
		items, err := backend.ListOwned[T](ctx, p.client, sess.JWT, sess.UserID, resource)
		if err != nil {
			return nil, err
		}
		// An owner's metrics cover exactly the records they own
		ws.SetMetrics(model.Statistics{Resource: resource, Counters: stats.Tally(items)})
		return items, nil
	}
	return screen.NewLocalList[T](resource, source, paging.MatchFilters[T], p.opts.PageSize, screen.Hooks{
		OnAuthExpired: func(ctx context.Context) { ws.MarkExpired() },
	}, p.logger)
}

// refreshMetrics reloads the counters of resource from the whole dataset.
// A failure keeps the previous counters and attaches the failure notice.
func (p *Portal) refreshMetrics(ctx context.Context, ws *screen.Workspace, resource model.Resource) {
	s, err := p.refresher.Refresh(ctx, ws.Session().JWT, resource)
	if err != nil {
		if errors.Is(err, backend.ErrAuthExpired) {
			ws.MarkExpired()
			return
		}
		p.logger.Warn("metrics refresh failed", zap.String("resource", resource.String()), zap.Error(err))
		prev, ok := ws.Metrics(resource)
		if !ok {
			prev = model.Statistics{Resource: resource, Counters: model.Counters{}}
		}
		prev.Notice = backend.AsError(err).UserMessage()
		ws.SetMetrics(prev)
		return
	}
	ws.SetMetrics(s)
}

// afterMutation brings the list and metrics of resource up to date after a write
func (p *Portal) afterMutation(ctx context.Context, ws *screen.Workspace, resource model.Resource) error {
	list, err := ws.List(resource)
	if err == nil && list.Loaded() {
		if err := list.Reload(ctx); err != nil && !errors.Is(err, paging.ErrStaleResponse) {
			return err
		}
		return nil
	}
	if ws.Session().IsAdmin() {
		p.refreshMetrics(ctx, ws, resource)
	}
	return nil
}

// workspace returns the signed-in session and its screen state
func (p *Portal) workspace(r *http.Request) (*session.Session, *screen.Workspace, bool) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		return nil, nil, false
	}
	return sess, p.screens.Workspace(sess), true
}

// handleAuthExpired ends the session when err or the workspace reports an
// expired token. It returns true when the response has been written.
func (p *Portal) handleAuthExpired(w http.ResponseWriter, r *http.Request, ws *screen.Workspace, err error) bool {
	if errors.Is(err, backend.ErrAuthExpired) || (ws != nil && ws.Expired()) {
		sess, _ := middleware.GetSession(r.Context())
		p.guard.Expire(w, r, sess)
		return true
	}
	return false
}

// resourceParam reads {resource} and checks it is a known collection
func resourceParam(r *http.Request) (model.Resource, bool) {
	return model.ParseResource(chi.URLParam(r, "resource"))
}
