// proxymap program main
//
// The program serves the routing decision layer over one or two route
// sources: a YAML routes file and/or the service catalog of a Consul agent.
// Dispatched routes with a literal URL location are forwarded with the
// standard library reverse proxy; logical service locations require a load
// balancing forwarder and answer 502 in this program.
//
// (see the proxymap package for an overview of the module structure)
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/zalando/proxymap"
	"github.com/zalando/proxymap/route"
)

const (
	addressUsage         = "address where proxymap should listen on"
	routesFileUsage      = "path of the YAML routes file"
	consulAddressUsage   = "address of the consul agent to discover routes from"
	consulTagUsage       = "only discover consul services carrying this tag"
	consulPrefixUsage    = "path prefix of consul discovered routes"
	errorPathUsage       = "error rendering path that is never dispatched to a route"
	metricsListenerUsage = "address of the prometheus endpoint, empty disables it"
	logLevelUsage        = "application log level"
	logJSONUsage         = "log in JSON format"
)

var (
	address         string
	routesFile      string
	consulAddress   string
	consulTag       string
	consulPrefix    string
	errorPath       string
	metricsListener string
	logLevel        string
	logJSON         bool
)

func init() {
	flag.StringVar(&address, "address", ":9090", addressUsage)
	flag.StringVar(&routesFile, "routes-file", "", routesFileUsage)
	flag.StringVar(&consulAddress, "consul", "", consulAddressUsage)
	flag.StringVar(&consulTag, "consul-tag", "", consulTagUsage)
	flag.StringVar(&consulPrefix, "consul-prefix", "", consulPrefixUsage)
	flag.StringVar(&errorPath, "error-path", "/error", errorPathUsage)
	flag.StringVar(&metricsListener, "metrics-listener", ":9911", metricsListenerUsage)
	flag.StringVar(&logLevel, "log-level", "info", logLevelUsage)
	flag.BoolVar(&logJSON, "log-json", false, logJSONUsage)
}

// urlForwarder forwards routes with a literal URL location. Routes with a
// logical service location need the load balancing subsystem, which is not
// part of this program.
//
// The reverse proxies are created once per distinct location; the per
// request state, the forward path and the sensitive header set, is read
// from the resolved route carried in the request context.
type urlForwarder struct {
	mu      sync.Mutex
	proxies map[string]*httputil.ReverseProxy
}

type resolvedRouteKey struct{}

func (f *urlForwarder) Forward(w http.ResponseWriter, req *http.Request, r *route.Route) error {
	rp, err := f.proxy(r)
	if err != nil {
		return err
	}

	ctx := context.WithValue(req.Context(), resolvedRouteKey{}, r)
	rp.ServeHTTP(w, req.WithContext(ctx))
	return nil
}

func (f *urlForwarder) proxy(r *route.Route) (*httputil.ReverseProxy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rp, ok := f.proxies[r.Location]; ok {
		return rp, nil
	}

	u, err := url.Parse(r.Location)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("route %s: location %s is not a literal URL", r.ID, r.Location)
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	director := rp.Director
	rp.Director = func(fwd *http.Request) {
		director(fwd)
		r, ok := fwd.Context().Value(resolvedRouteKey{}).(*route.Route)
		if !ok {
			return
		}

		fwd.URL.Path = r.Path
		for _, h := range r.EffectiveSensitiveHeaders() {
			fwd.Header.Del(h)
		}
	}

	if f.proxies == nil {
		f.proxies = make(map[string]*httputil.ReverseProxy)
	}

	f.proxies[r.Location] = rp
	return rp, nil
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := proxymap.Run(ctx, proxymap.Options{
		Address:                   address,
		RoutesFile:                routesFile,
		ConsulAddress:             consulAddress,
		ConsulTag:                 consulTag,
		ConsulPrefix:              consulPrefix,
		ErrorPath:                 errorPath,
		MetricsListener:           metricsListener,
		Forwarder:                 &urlForwarder{},
		ApplicationLogLevel:       logLevel,
		ApplicationLogJSONEnabled: logJSON,
	})
	if err != nil {
		log.Fatal(err)
	}
}
