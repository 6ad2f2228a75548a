// Package consul implements a route source backed by the service catalog of
// a Consul agent. Every discovered service is exposed as one route,
// /<service>/**, with the service name as the logical location, to be
// resolved by the load balancing subsystem at forwarding time.
//
// The client supports Refresh by re-listing the catalog, and a blocking
// query watch loop that reports catalog changes, typically wired to the
// dispatch engine's Invalidate.
package consul

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	consulapi "github.com/hashicorp/consul/api"
	log "github.com/sirupsen/logrus"

	"github.com/zalando/proxymap/route"
	"github.com/zalando/proxymap/routing"
)

// Options to initialize a Consul backed route source.
type Options struct {

	// Address of the Consul agent. When empty, the library default is
	// used.
	Address string

	// Prefix is prepended to the generated route paths.
	Prefix string

	// Tag restricts discovery to services carrying it. When empty, all
	// services are exposed.
	Tag string

	// StripPrefix controls whether the generated routes ask the
	// forwarder to remove Prefix from the request path.
	StripPrefix bool

	// IgnoredPatterns are served alongside the discovered routes.
	IgnoredPatterns []string

	// WaitTime of the blocking catalog queries in Watch. Defaults to 5
	// minutes.
	WaitTime time.Duration
}

// Client is a Consul backed route source. It serves the catalog state of
// the last successful Refresh.
type Client struct {
	consul  *consulapi.Client
	options Options

	mu     sync.RWMutex
	routes []*route.Route
	loaded bool
}

// New creates a route source over the Consul agent at the configured
// address. The catalog is read lazily, on the first Refresh or Routes call.
func New(o Options) (*Client, error) {
	cfg := consulapi.DefaultConfig()
	if o.Address != "" {
		cfg.Address = o.Address
	}

	consul, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	if o.WaitTime <= 0 {
		o.WaitTime = 5 * time.Minute
	}

	return &Client{consul: consul, options: o}, nil
}

// Refresh re-lists the service catalog. On failure the previously loaded
// routes stay in place.
func (c *Client) Refresh() error {
	services, _, err := c.consul.Catalog().Services(nil)
	if err != nil {
		return fmt.Errorf("failed to list consul services: %w", err)
	}

	routes := c.routesFromServices(services)

	c.mu.Lock()
	c.routes = routes
	c.loaded = true
	c.mu.Unlock()
	return nil
}

func (c *Client) IgnoredPaths() []string {
	return c.options.IgnoredPatterns
}

func (c *Client) Routes() ([]*route.Route, error) {
	c.mu.RLock()
	loaded, routes := c.loaded, c.routes
	c.mu.RUnlock()

	if !loaded {
		if err := c.Refresh(); err != nil {
			return nil, err
		}

		c.mu.RLock()
		routes = c.routes
		c.mu.RUnlock()
	}

	return routes, nil
}

func (c *Client) MatchingRoute(path string) *route.Route {
	routes, err := c.Routes()
	if err != nil {
		log.Errorf("failed to resolve %s: %v", path, err)
		return nil
	}

	return routing.Resolve(routes, path)
}

// Watch polls the service catalog with blocking queries and calls onChange
// whenever the catalog index moves. It returns when ctx is done. Failed
// polls are retried with exponential backoff.
func (c *Client) Watch(ctx context.Context, onChange func()) {
	bo := backoff.NewExponentialBackOff()
	var lastIndex uint64
	for {
		if ctx.Err() != nil {
			return
		}

		opts := &consulapi.QueryOptions{WaitIndex: lastIndex, WaitTime: c.options.WaitTime}
		_, meta, err := c.consul.Catalog().Services(opts.WithContext(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			delay := bo.NextBackOff()
			log.Errorf("consul catalog poll failed, retrying in %v: %v", delay, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			continue
		}

		bo = backoff.NewExponentialBackOff()
		index := meta.LastIndex
		if index == 0 {
			// an index of 0 would turn the next blocking query into a
			// busy poll
			index = 1
		}

		if index == lastIndex {
			continue
		}

		if index < lastIndex {
			// index reset, force a full resync on the next pass
			lastIndex = 0
		} else {
			lastIndex = index
		}

		onChange()
	}
}

// routesFromServices maps the catalog listing, service name to tags, to
// routes. The listing order of a map is undefined, so the routes are sorted
// by service name to keep the tie-break order of generations stable.
func (c *Client) routesFromServices(services map[string][]string) []*route.Route {
	names := make([]string, 0, len(services))
	for name, tags := range services {
		if name == "consul" {
			continue
		}

		if c.options.Tag != "" && !hasTag(tags, c.options.Tag) {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	routes := make([]*route.Route, 0, len(names))
	for _, name := range names {
		path := "/" + name + "/**"
		routes = append(routes, &route.Route{
			ID:          name,
			FullPath:    joinPath(c.options.Prefix, path),
			Path:        path,
			Location:    name,
			Prefix:      c.options.Prefix,
			StripPrefix: c.options.StripPrefix,
		})
	}

	return routes
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}

	return false
}

func joinPath(prefix, path string) string {
	if prefix == "" {
		return path
	}

	return strings.TrimSuffix(prefix, "/") + path
}
