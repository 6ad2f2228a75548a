// Package routefile implements a route source backed by a YAML file.
//
// The file declares an optional shared path prefix, the ignored path
// patterns and a list of routes. Route entries may give a path pattern, a
// logical service id or a literal URL, and forwarding hints:
//
//	prefix: /api
//	ignored-patterns:
//	  - /health
//	routes:
//	  - id: users
//	    path: /users/**
//	    service-id: user-service
//	    retryable: true
//	  - id: static
//	    path: /static/**
//	    url: https://static.example.org
//	    sensitive-headers: [Cookie]
//
// When a route gives no path, /<id>/** is assumed. When it gives neither a
// service id nor a URL, the id doubles as the logical location. The client
// supports Refresh by re-reading the file, so an invalidated dispatch engine
// picks up edits on its next rebuild.
package routefile

import (
	"fmt"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/zalando/proxymap/route"
	"github.com/zalando/proxymap/routing"
)

type routeDef struct {
	ID               string    `yaml:"id"`
	Path             string    `yaml:"path"`
	ServiceID        string    `yaml:"service-id"`
	URL              string    `yaml:"url"`
	StripPrefix      *bool     `yaml:"strip-prefix"`
	Retryable        bool      `yaml:"retryable"`
	SensitiveHeaders *[]string `yaml:"sensitive-headers"`
}

type fileSpec struct {
	Prefix          string     `yaml:"prefix"`
	StripPrefix     *bool      `yaml:"strip-prefix"`
	IgnoredPatterns []string   `yaml:"ignored-patterns"`
	Routes          []routeDef `yaml:"routes"`
}

// Client is a file backed route source. It serves the state of the last
// successful Refresh, so a temporarily unreadable or unparsable file never
// blanks out previously loaded routes.
type Client struct {
	fileName string

	mu      sync.RWMutex
	ignored []string
	routes  []*route.Route
}

// Open loads the routes file and creates a route source over it.
func Open(name string) (*Client, error) {
	c := &Client{fileName: name}
	if err := c.Refresh(); err != nil {
		return nil, err
	}

	return c, nil
}

// Refresh re-reads the routes file. On failure the previously loaded state
// stays in place.
func (c *Client) Refresh() error {
	content, err := os.ReadFile(c.fileName)
	if err != nil {
		return fmt.Errorf("failed to read routes file: %w", err)
	}

	spec, err := parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse routes file %s: %w", c.fileName, err)
	}

	routes := expand(spec)

	c.mu.Lock()
	c.ignored = spec.IgnoredPatterns
	c.routes = routes
	c.mu.Unlock()
	return nil
}

func (c *Client) IgnoredPaths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ignored
}

func (c *Client) Routes() ([]*route.Route, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.routes, nil
}

func (c *Client) MatchingRoute(path string) *route.Route {
	routes, _ := c.Routes()
	return routing.Resolve(routes, path)
}

func parse(content []byte) (*fileSpec, error) {
	spec := &fileSpec{}
	if err := yaml.UnmarshalStrict(content, spec); err != nil {
		return nil, err
	}

	return spec, nil
}

// expand turns the file declarations into complete routes, composing the
// full path from the shared prefix. Entries without an id are skipped with a
// warning, keeping the remaining routes usable.
func expand(spec *fileSpec) []*route.Route {
	stripDefault := true
	if spec.StripPrefix != nil {
		stripDefault = *spec.StripPrefix
	}

	routes := make([]*route.Route, 0, len(spec.Routes))
	for i, def := range spec.Routes {
		if def.ID == "" {
			log.Warnf("skipping route #%d in routes file: missing id", i)
			continue
		}

		path := def.Path
		if path == "" {
			path = "/" + def.ID + "/**"
		} else if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		location := def.URL
		if location == "" {
			location = def.ServiceID
		}

		if location == "" {
			location = def.ID
		}

		strip := stripDefault
		if def.StripPrefix != nil {
			strip = *def.StripPrefix
		}

		r := &route.Route{
			ID:          def.ID,
			FullPath:    joinPath(spec.Prefix, path),
			Path:        path,
			Location:    location,
			Prefix:      spec.Prefix,
			StripPrefix: strip,
			Retryable:   def.Retryable,
		}

		if def.SensitiveHeaders != nil {
			r.CustomSensitiveHeaders = true
			r.SensitiveHeaders = *def.SensitiveHeaders
		}

		routes = append(routes, r)
	}

	return routes
}

func joinPath(prefix, path string) string {
	if prefix == "" {
		return path
	}

	return strings.TrimSuffix(prefix, "/") + path
}
