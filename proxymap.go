package proxymap

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dimfeld/httppath"
	log "github.com/sirupsen/logrus"

	consulclient "github.com/zalando/proxymap/dataclients/consul"
	"github.com/zalando/proxymap/dataclients/routefile"
	"github.com/zalando/proxymap/logging"
	"github.com/zalando/proxymap/metrics"
	"github.com/zalando/proxymap/proxy"
	"github.com/zalando/proxymap/routing"
)

const defaultAddress = ":9090"

// Options to start a proxymap gateway.
type Options struct {

	// Address where the gateway listens. Defaults to :9090.
	Address string

	// RoutesFile is the path of a YAML routes file, see the
	// dataclients/routefile package. Optional when a Consul address is
	// set.
	RoutesFile string

	// ConsulAddress of the agent whose service catalog supplies routes,
	// see the dataclients/consul package. Optional when a routes file is
	// set. The catalog is watched, so catalog changes invalidate the
	// route table at runtime.
	ConsulAddress string

	// ConsulTag restricts catalog discovery to services carrying it.
	ConsulTag string

	// ConsulPrefix is prepended to the paths of catalog discovered
	// routes.
	ConsulPrefix string

	// ErrorPath is the gateway's own error rendering path. Requests for
	// it are never dispatched to a route.
	ErrorPath string

	// MetricsListener is the address of the Prometheus endpoint. Empty
	// disables it.
	MetricsListener string

	// Forwarder performs the upstream calls for dispatched requests.
	Forwarder proxy.Forwarder

	// Next handles the requests the dispatch engine decided not to
	// route. Defaults to a plain 404.
	Next http.Handler

	// Application log settings, see the logging package.
	ApplicationLogPrefix      string
	ApplicationLogOutput      io.Writer
	ApplicationLogJSONEnabled bool
	ApplicationLogLevel       string
}

// Handler returns the HTTP boundary of a dispatch engine. It derives the
// decision inputs from the request: the cleaned URL path, whether an earlier
// stage stored a forward target in the request context, and whether the path
// is the designated error path. Requests without a dispatch decision fall
// through to next.
func Handler(e *routing.Engine, errorPath string, next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := httppath.Clean(req.URL.Path)
		_, forwarded := proxy.ForwardTarget(req.Context())

		d := e.Decide(path, forwarded, errorPath != "" && path == errorPath)
		if d == nil {
			next.ServeHTTP(w, req)
			return
		}

		d.Handler.ServeHTTP(w, req)
	})
}

func createSource(o Options) (routing.RouteSource, *consulclient.Client, error) {
	var (
		sources []routing.RouteSource
		watched *consulclient.Client
	)

	if o.RoutesFile != "" {
		c, err := routefile.Open(o.RoutesFile)
		if err != nil {
			return nil, nil, err
		}

		sources = append(sources, c)
	}

	if o.ConsulAddress != "" {
		c, err := consulclient.New(consulclient.Options{
			Address:     o.ConsulAddress,
			Prefix:      o.ConsulPrefix,
			Tag:         o.ConsulTag,
			StripPrefix: true,
		})
		if err != nil {
			return nil, nil, err
		}

		watched = c
		sources = append(sources, c)
	}

	switch len(sources) {
	case 0:
		return nil, nil, errors.New("no route source specified")
	case 1:
		return sources[0], watched, nil
	default:
		return routing.NewMultiSource(sources...), watched, nil
	}
}

// Run wires the route sources, the dispatch engine, the generic proxy
// handler and the metrics endpoint into an HTTP server, and serves until the
// context is canceled.
func Run(ctx context.Context, o Options) error {
	if err := logging.Init(logging.Options{
		ApplicationLogPrefix:      o.ApplicationLogPrefix,
		ApplicationLogOutput:      o.ApplicationLogOutput,
		ApplicationLogJSONEnabled: o.ApplicationLogJSONEnabled,
		ApplicationLogLevel:       o.ApplicationLogLevel,
	}); err != nil {
		return err
	}

	if o.Forwarder == nil {
		return errors.New("no forwarder specified")
	}

	source, watched, err := createSource(o)
	if err != nil {
		return err
	}

	m := metrics.NewPrometheus()
	engine := routing.New(routing.Options{
		Source:  source,
		Handler: proxy.New(source, o.Forwarder),
		Metrics: m,
	})

	if watched != nil {
		go watched.Watch(ctx, engine.Invalidate)
	}

	var metricsSrv *http.Server
	if o.MetricsListener != "" {
		metricsSrv = &http.Server{Addr: o.MetricsListener, Handler: m.Handler()}
		go func() {
			log.Infof("metrics listener on %s", o.MetricsListener)
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics listener failed: %v", err)
			}
		}()
	}

	if o.Address == "" {
		o.Address = defaultAddress
	}

	srv := &http.Server{
		Addr:    o.Address,
		Handler: Handler(engine, o.ErrorPath, o.Next),
	}

	go func() {
		<-ctx.Done()
		if metricsSrv != nil {
			metricsSrv.Shutdown(context.Background())
		}
		srv.Shutdown(context.Background())
	}()

	log.Infof("proxymap listening on %s", o.Address)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
