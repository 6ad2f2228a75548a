package routing

import (
	"errors"
	"strings"

	"github.com/zalando/proxymap/pathmatch"
	"github.com/zalando/proxymap/route"
)

// RouteSource supplies the current routing rules to the dispatch engine. It
// is typically backed by static configuration, a configuration file or a
// service discovery registry.
type RouteSource interface {

	// IgnoredPaths returns glob patterns that must never be dispatched to
	// a route, regardless of whether a matching route exists.
	IgnoredPaths() []string

	// Routes returns the full current rule set. The order is the
	// insertion order of the configuration and breaks ties between
	// equally specific patterns, earlier entries winning.
	Routes() ([]*route.Route, error)

	// MatchingRoute resolves a concrete request path to its route, with
	// the remaining forward path and the sensitive header set computed.
	// It returns nil when no route matches.
	MatchingRoute(path string) *route.Route
}

// Refresher is an optional capability of a RouteSource. Sources that support
// it recompute their internal state on demand, e.g. by re-polling a
// discovery registry. The dispatch engine calls Refresh before reading
// Routes whenever the route table was invalidated.
type Refresher interface {
	Refresh() error
}

// Resolve returns the most specific route whose FullPath matches path,
// following the same precedence as the route table: exact literal over
// single-segment wildcard over multi-segment wildcard, earlier routes
// winning ties. The returned value is a copy with Path rewritten to the
// request path the forwarder should use, the route's prefix stripped when
// the route asks for it.
//
// Sources can use it to implement MatchingRoute on top of their Routes data.
func Resolve(routes []*route.Route, path string) *route.Route {
	var best *route.Route
	for _, r := range routes {
		if !pathmatch.Match(r.FullPath, path) {
			continue
		}

		if best == nil || pathmatch.Compare(r.FullPath, best.FullPath) < 0 {
			best = r
		}
	}

	if best == nil {
		return nil
	}

	resolved := best.Copy()
	resolved.Path = forwardPath(best, path)
	return resolved
}

func forwardPath(r *route.Route, path string) string {
	if !r.StripPrefix || r.Prefix == "" {
		return path
	}

	rest, ok := strings.CutPrefix(path, r.Prefix)
	if !ok {
		return path
	}

	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}

	return rest
}

// MultiSource combines several route sources into one. Ignored paths and
// routes are concatenated in source order, so the tie-break order between
// sources follows their registration order. MatchingRoute returns the first
// source's answer that is not nil.
type MultiSource struct {
	sources []RouteSource
}

// NewMultiSource combines the given sources into one RouteSource.
func NewMultiSource(sources ...RouteSource) *MultiSource {
	return &MultiSource{sources: sources}
}

func (m *MultiSource) IgnoredPaths() []string {
	var ignored []string
	for _, s := range m.sources {
		ignored = append(ignored, s.IgnoredPaths()...)
	}

	return ignored
}

func (m *MultiSource) Routes() ([]*route.Route, error) {
	var routes []*route.Route
	for _, s := range m.sources {
		r, err := s.Routes()
		if err != nil {
			return nil, err
		}

		routes = append(routes, r...)
	}

	return routes, nil
}

func (m *MultiSource) MatchingRoute(path string) *route.Route {
	for _, s := range m.sources {
		if r := s.MatchingRoute(path); r != nil {
			return r
		}
	}

	return nil
}

// Refresh refreshes every member source that supports it. All members are
// attempted even when one of them fails.
func (m *MultiSource) Refresh() error {
	var errs []error
	for _, s := range m.sources {
		if r, ok := s.(Refresher); ok {
			errs = append(errs, r.Refresh())
		}
	}

	return errors.Join(errs...)
}
