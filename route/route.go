// Package route defines the immutable routing rule value shared by the route
// sources and the dispatch engine. A route maps a path pattern to a logical
// backend location, together with the forwarding hints (retryability,
// sensitive headers) consumed by the forwarding subsystem.
package route

// Headers that are not forwarded upstream unless a route replaces the set
// with its own.
var defaultSensitiveHeaders = []string{"Cookie", "Set-Cookie", "Authorization"}

// Route describes one routing rule. Values are treated as immutable once
// published in a route table generation.
type Route struct {

	// ID is the stable logical identifier of the backend, a service name
	// or a static location key.
	ID string

	// FullPath is the concrete path pattern this route answers to,
	// already combined with Prefix. It is unique within one table
	// generation.
	FullPath string

	// Path is the pattern fragment relative to Prefix. On a route
	// resolved for a concrete request it is rewritten to the remaining
	// request path that the forwarder should use.
	Path string

	// Location is either a logical service identifier, resolved later by
	// the load balancing subsystem, or a literal URL.
	Location string

	// Prefix is the common path segment shared by a group of routes.
	Prefix string

	// StripPrefix controls whether Prefix is removed from the request
	// path before forwarding.
	StripPrefix bool

	// Retryable tells the forwarding subsystem whether the upstream call
	// may be retried. Not interpreted by the dispatch layer.
	Retryable bool

	// CustomSensitiveHeaders is set when SensitiveHeaders replaces the
	// default set instead of inheriting it.
	CustomSensitiveHeaders bool

	// SensitiveHeaders are the header names withheld from the upstream
	// request. Only used when CustomSensitiveHeaders is set.
	SensitiveHeaders []string
}

// DefaultSensitiveHeaders returns the header names withheld from upstream
// requests for routes without a custom set.
func DefaultSensitiveHeaders() []string {
	s := make([]string, len(defaultSensitiveHeaders))
	copy(s, defaultSensitiveHeaders)
	return s
}

// EffectiveSensitiveHeaders returns the sensitive header set that applies to
// this route, falling back to the defaults when the route does not carry a
// custom set.
func (r *Route) EffectiveSensitiveHeaders() []string {
	if r.CustomSensitiveHeaders {
		s := make([]string, len(r.SensitiveHeaders))
		copy(s, r.SensitiveHeaders)
		return s
	}

	return DefaultSensitiveHeaders()
}

// Copy returns a shallow copy of the route with its own sensitive header
// slice.
func (r *Route) Copy() *Route {
	c := *r
	c.SensitiveHeaders = make([]string, len(r.SensitiveHeaders))
	copy(c.SensitiveHeaders, r.SensitiveHeaders)
	return &c
}
