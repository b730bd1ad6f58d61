// Package screen owns the list screens of each signed-in session. Every
// session gets its own Workspace so no paging or filter state is shared.
package screen

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
	"github.com/Sapuran-Berperan/fleet-portal/internal/paging"
)

// Paging modes reported in ListView
const (
	ModeServer = "server"
	ModeLocal  = "local"
)

// ListView is the declarative state of one list screen
type ListView struct {
	Resource model.Resource    `json:"resource"`
	Mode     string            `json:"mode"`
	Items    any               `json:"items"`
	Paging   model.PagingState `json:"paging"`
	Info     model.PageInfo    `json:"info"`
	Filters  model.FilterState `json:"filters"`
	Notice   *paging.Notice    `json:"notice,omitempty"`
	Metrics  *model.Statistics `json:"metrics,omitempty"`
}

// List is a list screen regardless of where its paging happens
type List interface {
	Load(ctx context.Context, page int, filters model.FilterState) error
	ChangePage(ctx context.Context, page int) (bool, error)
	ApplyFilters(ctx context.Context, filters model.FilterState) error
	Reload(ctx context.Context) error
	Loaded() bool
	View() ListView
}

// Hooks are the session-level callbacks a list reports to
type Hooks struct {
	OnAuthExpired func(ctx context.Context)
	OnSettled     func(ctx context.Context)
}

// ServerList pages through the backend, one request per page or filter change
type ServerList[T any] struct {
	resource model.Resource
	ctrl     *paging.Controller[T]
}

// NewServerList creates a server-delegated list for resource
func NewServerList[T any](resource model.Resource, fetch paging.Fetcher[T], pageSize int, hooks Hooks, logger *zap.Logger) *ServerList[T] {
	return &ServerList[T]{
		resource: resource,
		ctrl: paging.NewController(fetch, paging.Options{
			PageSize:      pageSize,
			FilterKeys:    resource.FilterKeys(),
			OnAuthExpired: hooks.OnAuthExpired,
			OnSettled:     hooks.OnSettled,
			Logger:        logger,
		}),
	}
}

func (l *ServerList[T]) Load(ctx context.Context, page int, filters model.FilterState) error {
	return l.ctrl.Load(ctx, page, filters)
}

// ChangePage loads the first page before a list's first page change so the
// range check runs against the backend's real page count
func (l *ServerList[T]) ChangePage(ctx context.Context, page int) (bool, error) {
	if !l.ctrl.Loaded() {
		if err := l.ctrl.Load(ctx, 0, nil); err != nil {
			return false, err
		}
	}
	return l.ctrl.ChangePage(ctx, page)
}

func (l *ServerList[T]) ApplyFilters(ctx context.Context, filters model.FilterState) error {
	return l.ctrl.ApplyFilters(ctx, filters)
}

func (l *ServerList[T]) Reload(ctx context.Context) error {
	return l.ctrl.Reload(ctx)
}

func (l *ServerList[T]) Loaded() bool {
	return l.ctrl.Loaded()
}

// Controller exposes the underlying paged controller
func (l *ServerList[T]) Controller() *paging.Controller[T] {
	return l.ctrl
}

func (l *ServerList[T]) View() ListView {
	return ListView{
		Resource: l.resource,
		Mode:     ModeServer,
		Items:    l.ctrl.Items(),
		Paging:   l.ctrl.State(),
		Info:     l.ctrl.Info(),
		Filters:  l.ctrl.Filters(),
		Notice:   l.ctrl.Notice(),
	}
}

// SourceFunc loads the complete dataset of a local list
type SourceFunc[T any] func(ctx context.Context) ([]T, error)

// LocalList loads a bounded dataset once and pages and filters it in memory
type LocalList[T any] struct {
	resource model.Resource
	source   SourceFunc[T]
	hooks    Hooks
	logger   *zap.Logger
	list     *paging.LocalList[T]

	mu     sync.Mutex
	seq    uint64
	loaded bool
	notice *paging.Notice
}

// NewLocalList creates a client-side list over the records source returns
func NewLocalList[T any](resource model.Resource, source SourceFunc[T], match paging.Predicate[T], pageSize int, hooks Hooks, logger *zap.Logger) *LocalList[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalList[T]{
		resource: resource,
		source:   source,
		hooks:    hooks,
		logger:   logger,
		list:     paging.NewLocalList[T](nil, pageSize, match),
	}
}

// Load fetches the dataset, applies filters and moves to page when it exists.
// Only the most recently issued load may replace the dataset; an older one
// that settles later returns paging.ErrStaleResponse.
func (l *LocalList[T]) Load(ctx context.Context, page int, filters model.FilterState) error {
	filters = filters.Restrict(l.resource.FilterKeys())

	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	items, err := l.source(ctx)

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		l.logger.Debug("discarding stale dataset", zap.String("resource", l.resource.String()), zap.Uint64("seq", seq))
		return paging.ErrStaleResponse
	}

	if err != nil {
		be := backend.AsError(err)
		if be.Kind == backend.KindAuthExpired {
			l.mu.Unlock()
			if l.hooks.OnAuthExpired != nil {
				l.hooks.OnAuthExpired(ctx)
			}
			return err
		}

		l.list.SetSource(nil)
		l.list.ApplyFilters(filters)
		l.notice = &paging.Notice{Kind: be.Kind.String(), Message: be.UserMessage()}
		l.loaded = true
		l.mu.Unlock()

		l.logger.Warn("dataset load failed", zap.String("resource", l.resource.String()), zap.Error(err))
		l.settled(ctx)
		return err
	}

	l.list.SetSource(items)
	l.list.ApplyFilters(filters)
	l.list.Pager().GoToPage(page)
	l.notice = nil
	l.loaded = true
	l.mu.Unlock()

	l.settled(ctx)
	return nil
}

func (l *LocalList[T]) settled(ctx context.Context) {
	if l.hooks.OnSettled != nil {
		l.hooks.OnSettled(ctx)
	}
}

// ChangePage moves within the loaded dataset without contacting the backend
func (l *LocalList[T]) ChangePage(ctx context.Context, page int) (bool, error) {
	if !l.Loaded() {
		if err := l.Load(ctx, 0, nil); err != nil {
			return false, err
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list.Pager().GoToPage(page), nil
}

// ApplyFilters refilters the loaded dataset and returns to the first page
func (l *LocalList[T]) ApplyFilters(ctx context.Context, filters model.FilterState) error {
	if !l.Loaded() {
		return l.Load(ctx, 0, filters)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.list.ApplyFilters(filters.Restrict(l.resource.FilterKeys()))
	return nil
}

// Reload refetches the dataset, keeping filters and page where possible
func (l *LocalList[T]) Reload(ctx context.Context) error {
	l.mu.Lock()
	page := l.list.Pager().CurrentPage()
	filters := l.list.Filters()
	l.mu.Unlock()
	return l.Load(ctx, page, filters)
}

func (l *LocalList[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

func (l *LocalList[T]) View() ListView {
	l.mu.Lock()
	defer l.mu.Unlock()

	var notice *paging.Notice
	if l.notice != nil {
		n := *l.notice
		notice = &n
	}

	pager := l.list.Pager()
	return ListView{
		Resource: l.resource,
		Mode:     ModeLocal,
		Items:    pager.CurrentPageItems(),
		Paging:   pager.State(),
		Info:     pager.Info(),
		Filters:  l.list.Filters().Active(),
		Notice:   notice,
	}
}
