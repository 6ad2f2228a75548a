// Package routing implements the dispatch decision layer of a reverse proxy
// gateway. For an inbound request path it decides whether the request is
// passed through untouched, excluded because it targets the error rendering
// path, bypassed because an earlier stage already picked the destination, or
// dispatched to the generic proxy handler bound to a matched route.
//
// The path pattern to handler mapping is kept in an immutable table
// generation that is rebuilt lazily from a RouteSource: an Invalidate call
// only marks the table stale, and the next decision that observes the flag
// rebuilds and atomically republishes the table. Readers either see the
// previous complete generation or the new one, never a partially populated
// table, and lookups take no locks.
package routing

import (
	"net/http"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/zalando/proxymap/pathmatch"
	"github.com/zalando/proxymap/route"
)

// Options to initialize a dispatch engine.
type Options struct {

	// Source supplies the routes and ignored path patterns.
	Source RouteSource

	// Handler is the generic proxy handler that gets registered for every
	// route during a rebuild.
	Handler http.Handler

	// Metrics receives the engine's observability signals. Defaults to
	// Void.
	Metrics Metrics
}

// Decision is the outcome of a dispatch decision: the generic proxy handler
// bound to the route whose pattern best matched the request path.
type Decision struct {
	Route   *route.Route
	Handler http.Handler
}

// Engine is the route table cache and dispatch engine. Its methods are safe
// for concurrent use.
type Engine struct {
	source  RouteSource
	handler http.Handler
	metrics Metrics

	mu    sync.Mutex // guards rebuilds
	stale atomic.Bool
	table atomic.Pointer[table]
}

// New creates a dispatch engine over the given route source. The engine
// starts with an empty, stale table, so the first decision triggers a
// rebuild.
func New(o Options) *Engine {
	if o.Metrics == nil {
		o.Metrics = Void
	}

	e := &Engine{
		source:  o.Source,
		handler: o.Handler,
		metrics: o.Metrics,
	}

	e.table.Store(newTable())
	e.stale.Store(true)
	return e
}

// Decide returns the handler bound to the route matching path, or nil when
// the caller should fall through to its default processing. The request is
// not dispatched when path is the designated error rendering path, when it
// matches an ignored pattern, or when an earlier stage already set an
// internal forward target. Decide never fails: a route source failure during
// a rebuild keeps the previously published table in use.
func (e *Engine) Decide(path string, internalForward, errorPath bool) *Decision {
	if errorPath {
		return nil
	}

	if e.ignored(path) {
		return nil
	}

	if internalForward {
		return nil
	}

	if e.stale.Load() {
		e.rebuild()
	}

	entry := e.table.Load().lookup(path)
	if entry == nil {
		return nil
	}

	return &Decision{Route: entry.route, Handler: entry.handler}
}

// Invalidate marks the published table generation stale. It performs no
// synchronous work; the next decision rebuilds the table.
func (e *Engine) Invalidate() {
	e.stale.Store(true)
}

func (e *Engine) ignored(path string) bool {
	for _, pattern := range e.source.IgnoredPaths() {
		if pathmatch.Match(pattern, path) {
			return true
		}
	}

	return false
}

// rebuild replaces the published table generation with one built from the
// current state of the route source. The stale flag is re-checked under the
// lock, so concurrent callers observing a stale table trigger exactly one
// rebuild. On failure the previous generation stays published and the table
// stays stale for a later retry.
func (e *Engine) rebuild() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.stale.Load() {
		return
	}

	if r, ok := e.source.(Refresher); ok {
		if err := r.Refresh(); err != nil {
			e.metrics.IncRouteTableFailure()
			log.Errorf("route source refresh failed, keeping the previous route table: %v", err)
			return
		}
	}

	routes, err := e.source.Routes()
	if err != nil {
		e.metrics.IncRouteTableFailure()
		log.Errorf("failed to read routes, keeping the previous route table: %v", err)
		return
	}

	if len(routes) == 0 {
		log.Warn("route source returned no routes")
	}

	t := buildTable(routes, e.handler, e.metrics)
	e.table.Store(t)
	e.stale.Store(false)

	e.metrics.IncRouteTableRebuild()
	e.metrics.UpdateRouteCount(t.size())
	log.Debugf("route table rebuilt with %d routes", t.size())
}
