package routing

// Metrics receives the observability signals of the dispatch engine. The
// engine reports through this interface only, so callers can plug in their
// metrics backend of choice.
type Metrics interface {

	// IncRouteTableRebuild is called once for every successfully
	// published table generation.
	IncRouteTableRebuild()

	// IncRouteTableFailure is called when a rebuild is aborted because
	// the route source failed.
	IncRouteTableFailure()

	// IncInvalidRoute is called for every route definition skipped during
	// a rebuild.
	IncInvalidRoute(id, reason string)

	// UpdateRouteCount reports the size of the published table
	// generation.
	UpdateRouteCount(n int)
}

// Void is a Metrics implementation that discards all values.
var Void Metrics = voidMetrics{}

type voidMetrics struct{}

func (voidMetrics) IncRouteTableRebuild()      {}
func (voidMetrics) IncRouteTableFailure()      {}
func (voidMetrics) IncInvalidRoute(_, _ string) {}
func (voidMetrics) UpdateRouteCount(int)       {}
