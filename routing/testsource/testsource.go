// Package testsource provides a simple, in-memory route source
// implementation to test the dispatch engine and other consumers of the
// routing.RouteSource interface.
package testsource

import (
	"sync"

	"github.com/zalando/proxymap/route"
	"github.com/zalando/proxymap/routing"
)

// Source is an in-memory route source. It counts the calls to Routes and
// Refresh, and can be set up to fail either of them once. Safe for
// concurrent use.
type Source struct {
	mu           sync.Mutex
	ignored      []string
	routes       []*route.Route
	routesErr    error
	refreshErr   error
	routesCalls  int
	refreshCalls int
}

// New creates a test source serving the given routes.
func New(routes ...*route.Route) *Source {
	return &Source{routes: routes}
}

// SetRoutes replaces the served routes.
func (s *Source) SetRoutes(routes ...*route.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = routes
}

// SetIgnored replaces the ignored path patterns.
func (s *Source) SetIgnored(patterns ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignored = patterns
}

// FailNext makes the next call to Routes return err.
func (s *Source) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routesErr = err
}

// FailNextRefresh makes the next call to Refresh return err.
func (s *Source) FailNextRefresh(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshErr = err
}

// RoutesCalls returns how often Routes was called.
func (s *Source) RoutesCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routesCalls
}

// RefreshCalls returns how often Refresh was called.
func (s *Source) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func (s *Source) IgnoredPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ignored
}

func (s *Source) Routes() ([]*route.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routesCalls++
	if err := s.routesErr; err != nil {
		s.routesErr = nil
		return nil, err
	}

	return s.routes, nil
}

func (s *Source) MatchingRoute(path string) *route.Route {
	s.mu.Lock()
	routes := s.routes
	s.mu.Unlock()

	return routing.Resolve(routes, path)
}

func (s *Source) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshCalls++
	if err := s.refreshErr; err != nil {
		s.refreshErr = nil
		return err
	}

	return nil
}
