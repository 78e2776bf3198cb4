// Package engine owns the product listing state: which filters are active,
// what the current page of results is, and the pagination bookkeeping.
// Loading goes through a catalog.Source, so the same engine runs against the
// remote backend or the in-memory fixture.
package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/shopverse/storefront/internal/domain/catalog"
	"github.com/shopverse/storefront/internal/store"
)

// State is the externally visible listing state.
type State struct {
	// Filters is the active query descriptor.
	Filters catalog.FilterOptions
	// Result is the current page. Nil until the first successful load.
	Result *catalog.Result
	// Loading is true while a reload is in flight.
	Loading bool
}

// Engine is the catalog query engine. Mutations are serialized; consumers
// read through State and Subscribe.
type Engine struct {
	mu     sync.Mutex
	source catalog.Source
	state  *store.Store[State]
	lg     *zap.Logger
}

// New creates an Engine with the default filter set. Nothing is loaded until
// the first Reload/SetFilters/Search call.
func New(source catalog.Source, lg *zap.Logger) *Engine {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Engine{
		source: source,
		state:  store.New(State{Filters: catalog.DefaultFilters()}),
		lg:     lg,
	}
}

// State returns the current listing state.
func (e *Engine) State() State {
	return e.state.Get()
}

// Filters returns the active filter set.
func (e *Engine) Filters() catalog.FilterOptions {
	return e.state.Get().Filters
}

// Subscribe registers fn to run after every state change.
func (e *Engine) Subscribe(fn func(State)) (cancel func()) {
	return e.state.Subscribe(fn)
}

// SetFilters merges the given options onto the active filters and reloads.
// Each option fully replaces the value of the key it names.
func (e *Engine) SetFilters(ctx context.Context, opts ...catalog.FilterOption) {
	e.mu.Lock()
	defer e.mu.Unlock()

	filters := e.state.Get().Filters.Merge(opts...)
	e.loadLocked(ctx, filters)
}

// ClearFilters resets to the default filter set and reloads.
func (e *Engine) ClearFilters(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadLocked(ctx, catalog.DefaultFilters())
}

// Search sets the free-text query (resetting to the first page) and reloads.
func (e *Engine) Search(ctx context.Context, query string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	filters := e.state.Get().Filters.Merge(
		catalog.WithQuery(query),
		catalog.WithPage(1),
	)
	e.loadLocked(ctx, filters)
}

// Reload re-runs the active query.
func (e *Engine) Reload(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadLocked(ctx, e.state.Get().Filters)
}

// loadLocked runs the query against the source. On failure the previous
// result stays visible and only the filters advance; the error is logged,
// matching the read-only failure policy.
func (e *Engine) loadLocked(ctx context.Context, filters catalog.FilterOptions) {
	prev := e.state.Get()
	e.state.Set(State{Filters: filters, Result: prev.Result, Loading: true})

	var (
		res *catalog.Result
		err error
	)
	if filters.Query != "" {
		res, err = e.source.Search(ctx, filters.Query, filters)
	} else {
		res, err = e.source.List(ctx, filters)
	}

	if err != nil {
		e.lg.Warn("catalog load failed, keeping previous results",
			zap.Error(err), zap.Any("filters", filters))
		e.state.Set(State{Filters: filters, Result: prev.Result})
		return
	}
	if res.Degenerate {
		e.lg.Warn("degenerate filter range, returning no matches",
			zap.Any("filters", filters))
	}

	e.state.Set(State{Filters: filters, Result: res})
}
