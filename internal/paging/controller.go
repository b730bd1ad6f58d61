package paging

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// ErrStaleResponse is returned when a newer load was issued while this one was in flight.
// The response is dropped and the controller keeps the newer state.
var ErrStaleResponse = errors.New("stale response discarded")

// Fetcher issues one page request against the backend
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, q model.PageQuery) (model.Page[T], error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc[T any] func(ctx context.Context, q model.PageQuery) (model.Page[T], error)

// FetchPage implements Fetcher
func (f FetcherFunc[T]) FetchPage(ctx context.Context, q model.PageQuery) (model.Page[T], error) {
	return f(ctx, q)
}

// Notice is a user-visible message left by the last load
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Options configures a Controller
type Options struct {
	PageSize int
	// FilterKeys restricts filters to the names the backend recognizes. Empty keeps all.
	FilterKeys []string
	// OnAuthExpired runs when the backend rejects the session (401/403)
	OnAuthExpired func(ctx context.Context)
	// OnSettled runs after every load that was not discarded or rejected for auth,
	// successful or not. Screens use it to refresh their aggregate metrics.
	OnSettled func(ctx context.Context)
	Logger    *zap.Logger
}

// Controller is the server-delegated paged list: every page or filter change
// issues exactly one backend request and the state is replaced by its outcome.
type Controller[T any] struct {
	fetch Fetcher[T]
	opts  Options

	mu      sync.Mutex
	seq     uint64
	loaded  bool
	items   []T
	state   model.PagingState
	filters model.FilterState
	notice  *Notice
}

// NewController creates a controller in the empty state
func NewController[T any](fetch Fetcher[T], opts Options) *Controller[T] {
	opts.PageSize = normalizePageSize(opts.PageSize)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller[T]{
		fetch: fetch,
		opts:  opts,
		items: []T{},
		state: model.PagingState{
			PageSize:   opts.PageSize,
			TotalPages: 1,
		},
		filters: model.FilterState{},
	}
}

// Load requests page with filters and reconciles the state with the response.
// Backend failures reset the list to an empty, renderable state and are returned;
// an auth failure leaves the state untouched.
func (c *Controller[T]) Load(ctx context.Context, page int, filters model.FilterState) error {
	if page < 0 {
		page = 0
	}
	if len(c.opts.FilterKeys) > 0 {
		filters = filters.Restrict(c.opts.FilterKeys)
	}
	filters = filters.Active()

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	result, err := c.fetch.FetchPage(ctx, model.PageQuery{
		Page:    page,
		Size:    c.opts.PageSize,
		Filters: filters,
	})

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.opts.Logger.Debug("discarding stale page response", zap.Uint64("seq", seq), zap.Int("page", page))
		return ErrStaleResponse
	}

	if err != nil {
		be := backend.AsError(err)
		if be.Kind == backend.KindAuthExpired {
			c.mu.Unlock()
			if c.opts.OnAuthExpired != nil {
				c.opts.OnAuthExpired(ctx)
			}
			return err
		}

		c.reset(filters)
		c.notice = &Notice{Kind: be.Kind.String(), Message: be.UserMessage()}
		c.mu.Unlock()

		c.opts.Logger.Warn("page load failed", zap.Int("page", page), zap.Error(err))
		c.settled(ctx)
		return err
	}

	items := result.Content
	if items == nil {
		items = []T{}
	}
	totalPages := result.TotalPages
	if totalPages <= 0 {
		totalPages = model.TotalPages(result.TotalElements, c.opts.PageSize)
	}

	c.items = items
	c.state.CurrentPage = page
	c.state.TotalPages = totalPages
	c.state.TotalElements = result.TotalElements
	c.filters = filters
	c.notice = nil
	c.loaded = true
	c.mu.Unlock()

	c.settled(ctx)
	return nil
}

// reset puts the list into the empty state after a failed load
func (c *Controller[T]) reset(filters model.FilterState) {
	c.items = []T{}
	c.state.CurrentPage = 0
	c.state.TotalPages = 1
	c.state.TotalElements = 0
	c.filters = filters
	c.loaded = true
}

func (c *Controller[T]) settled(ctx context.Context) {
	if c.opts.OnSettled != nil {
		c.opts.OnSettled(ctx)
	}
}

// ChangePage loads page with the active filters. It returns false without
// issuing a request when page is outside [0, totalPages).
func (c *Controller[T]) ChangePage(ctx context.Context, page int) (bool, error) {
	c.mu.Lock()
	totalPages := c.state.TotalPages
	filters := c.filters.Clone()
	c.mu.Unlock()

	if page < 0 || page >= totalPages {
		return false, nil
	}
	return true, c.Load(ctx, page, filters)
}

// ApplyFilters always restarts from the first page
func (c *Controller[T]) ApplyFilters(ctx context.Context, filters model.FilterState) error {
	return c.Load(ctx, 0, filters)
}

// Reload repeats the last request, or loads the first page if nothing was loaded yet
func (c *Controller[T]) Reload(ctx context.Context) error {
	c.mu.Lock()
	page := c.state.CurrentPage
	filters := c.filters.Clone()
	c.mu.Unlock()
	return c.Load(ctx, page, filters)
}

// Loaded reports whether any load has settled
func (c *Controller[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Items returns a copy of the current page's items
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return items
}

// State returns the paging state
func (c *Controller[T]) State() model.PagingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Filters returns a copy of the active filters
func (c *Controller[T]) Filters() model.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Clone()
}

// Notice returns the message left by the last failed load, or nil
func (c *Controller[T]) Notice() *Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notice == nil {
		return nil
	}
	n := *c.notice
	return &n
}

// Info returns the pagination labels for the current page
func (c *Controller[T]) Info() model.PageInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewInfo(c.state.CurrentPage, c.state.PageSize, c.state.TotalPages, c.state.TotalElements)
}
