// Package proxy provides the generic handler that the route table registers
// for every route. The handler resolves the request path to its route
// through the route source and hands the resolved route to a Forwarder, the
// collaborator that performs the actual upstream call. Byte level
// forwarding, load balancing and connection management live behind the
// Forwarder boundary and are not part of this package.
package proxy

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/zalando/proxymap/route"
	"github.com/zalando/proxymap/routing"
)

// Forwarder performs the upstream call for a resolved route. The route
// carries the forward path, the logical location or literal URL, the
// retryability hint and the sensitive header set the forwarder must not send
// upstream.
type Forwarder interface {
	Forward(w http.ResponseWriter, req *http.Request, r *route.Route) error
}

// ForwarderFunc adapts a function to the Forwarder interface.
type ForwarderFunc func(w http.ResponseWriter, req *http.Request, r *route.Route) error

func (f ForwarderFunc) Forward(w http.ResponseWriter, req *http.Request, r *route.Route) error {
	return f(w, req, r)
}

// Proxy is the generic route handler. One instance serves all routes; the
// concrete route is resolved per request.
type Proxy struct {
	source    routing.RouteSource
	forwarder Forwarder
}

// New creates the generic route handler over the given route source and
// forwarder.
func New(source routing.RouteSource, forwarder Forwarder) *Proxy {
	return &Proxy{source: source, forwarder: forwarder}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r := p.source.MatchingRoute(req.URL.Path)
	if r == nil {
		http.NotFound(w, req)
		return
	}

	if err := p.forwarder.Forward(w, req, r); err != nil {
		log.Errorf("failed to forward %s to %s: %v", req.URL.Path, r.Location, err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
}

type forwardTargetKey struct{}

// WithForwardTarget marks the request context with an already decided
// forward target. The dispatch layer does not re-route requests carrying the
// marker; an earlier processing stage owns their destination.
func WithForwardTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, forwardTargetKey{}, target)
}

// ForwardTarget returns the forward target set by an earlier processing
// stage, if any.
func ForwardTarget(ctx context.Context) (string, bool) {
	target, ok := ctx.Value(forwardTargetKey{}).(string)
	return target, ok
}
