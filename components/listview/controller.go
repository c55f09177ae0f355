package listview

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	admin "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/pkg/client"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load started before it finished.
var ErrSuperseded = errors.New("listview: superseded by a newer request")

// Fetcher loads one page of a list endpoint.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, query admin.ListQuery) (admin.ListPage[T], error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[T any] func(ctx context.Context, query admin.ListQuery) (admin.ListPage[T], error)

// Fetch calls f.
func (f FetcherFunc[T]) Fetch(ctx context.Context, query admin.ListQuery) (admin.ListPage[T], error) {
	return f(ctx, query)
}

// NewHTTPFetcher reads pages from a list endpoint of the admin API.
func NewHTTPFetcher[T any](c *client.Client, path string) Fetcher[T] {
	return client.NewListFetcher[T](c, path)
}

// State is a snapshot of a list view.
type State[T any] struct {
	Items      []T
	Pagination admin.Pagination
	Search     string
	RawSearch  string
	Sort       admin.SortState
	Loading    bool
	Loaded     bool
	Err        error
}

// HasMore reports whether LoadNextPage would issue a request.
func (s State[T]) HasMore() bool {
	return s.Loaded && !s.Loading && s.Pagination.HasMore()
}

// Option customizes a Controller.
type Option func(*options)

type options struct {
	pageSize int
	clock    Clock
	delay    time.Duration
	onChange func()
}

// WithPageSize sets the limit sent with every request.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithClock replaces the debounce clock.
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithDebounce overrides the search quiet period.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithChangeHandler is called after every state transition. Read the new
// state with Snapshot.
func WithChangeHandler(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// Controller orchestrates a paged, searchable, sortable list. At most one
// request is in flight: a new first page load cancels the previous request
// and only the newest request's result is ever applied.
type Controller[T any] struct {
	fetcher  Fetcher[T]
	pageSize int
	onChange func()
	search   *Debouncer

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu         sync.Mutex
	query      string
	sort       admin.SortState
	items      []T
	pagination admin.Pagination
	// pageQuery is the first page request that produced items and
	// pagination. It only changes when a first page load succeeds.
	pageQuery admin.ListQuery
	loading    bool
	loaded     bool
	err        error
	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

// NewController builds a controller backed by fetcher. Call Close to stop
// pending debounced searches.
func NewController[T any](fetcher Fetcher[T], opts ...Option) *Controller[T] {
	cfg := options{pageSize: admin.DefaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, stop := context.WithCancel(context.Background())
	c := &Controller[T]{
		fetcher:  fetcher,
		pageSize: cfg.pageSize,
		onChange: cfg.onChange,
		ctx:      ctx,
		stop:     stop,
	}
	c.search = NewDebouncer(cfg.clock, cfg.delay, c.searchSettled)
	return c
}

// Type records a keystroke in the search box. The search is applied after
// the debounce quiet period.
func (c *Controller[T]) Type(raw string) {
	c.search.Set(raw)
	c.notify()
}

func (c *Controller[T]) searchSettled(value string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()
	_ = c.SetSearch(c.ctx, value)
}

// SetSearch applies a search term immediately and reloads the first page.
// A term that already produced the visible list is a no-op.
func (c *Controller[T]) SetSearch(ctx context.Context, term string) error {
	c.mu.Lock()
	if c.loaded && c.err == nil && term == c.query && term == c.pageQuery.Search {
		c.mu.Unlock()
		return nil
	}
	c.query = term
	c.mu.Unlock()
	return c.LoadFirstPage(ctx)
}

// ToggleSort applies a click on a column header and reloads the first page.
func (c *Controller[T]) ToggleSort(ctx context.Context, field string) error {
	c.mu.Lock()
	c.sort = c.sort.Cycle(field)
	c.mu.Unlock()
	return c.LoadFirstPage(ctx)
}

// SetSort replaces the sort state and reloads the first page.
func (c *Controller[T]) SetSort(ctx context.Context, sort admin.SortState) error {
	c.mu.Lock()
	c.sort = sort.Normalized()
	c.mu.Unlock()
	return c.LoadFirstPage(ctx)
}

// Query returns the request the controller would send for the first page.
func (c *Controller[T]) Query() admin.ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

func (c *Controller[T]) queryLocked() admin.ListQuery {
	return admin.ListQuery{Search: c.query, Sort: c.sort, Limit: c.pageSize}
}

// LoadFirstPage cancels any in-flight request and fetches the first page for
// the current search and sort. On success the list is replaced; on failure
// the previous list is kept and the error is recorded.
func (c *Controller[T]) LoadFirstPage(ctx context.Context) error {
	c.mu.Lock()
	query := c.queryLocked().FirstPage()
	gen, reqCtx, cancel := c.beginLocked(ctx)
	c.mu.Unlock()
	c.notify()

	page, err := c.fetcher.Fetch(reqCtx, query)
	return c.finish(gen, cancel, query, page, err, true)
}

// LoadNextPage appends the page after the current one. It does nothing when
// the list is exhausted, has not loaded yet, or a load is already running.
// The request continues the query that produced the visible list, even when
// a newer search or sort failed to load.
func (c *Controller[T]) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.loaded {
		c.mu.Unlock()
		return nil
	}
	query, ok := c.pagination.Next(c.pageQuery)
	if !ok {
		c.mu.Unlock()
		return nil
	}
	gen, reqCtx, cancel := c.beginLocked(ctx)
	c.mu.Unlock()
	c.notify()

	page, err := c.fetcher.Fetch(reqCtx, query)
	return c.finish(gen, cancel, query, page, err, false)
}

func (c *Controller[T]) beginLocked(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	return c.generation, reqCtx, cancel
}

func (c *Controller[T]) finish(gen uint64, cancel context.CancelFunc, query admin.ListQuery, page admin.ListPage[T], err error, replace bool) error {
	cancel()
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.cancel = nil
	c.loading = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		c.notify()
		return err
	}
	if replace {
		c.items = slices.Clone(page.Items)
		c.pageQuery = query
	} else {
		c.items = append(c.items, page.Items...)
	}
	c.pagination = page.Pagination
	c.loaded = true
	c.err = nil
	c.mu.Unlock()
	c.notify()
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State[T]{
		Items:      slices.Clone(c.items),
		Pagination: c.pagination,
		Search:     c.query,
		RawSearch:  c.search.Raw(),
		Sort:       c.sort,
		Loading:    c.loading,
		Loaded:     c.loaded,
		Err:        c.err,
	}
}

func (c *Controller[T]) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

// Close stops the debouncer, cancels the in-flight request, and waits for
// debounced searches to return.
func (c *Controller[T]) Close() {
	c.search.Close()
	c.stop()
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}
