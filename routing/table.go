package routing

import (
	"net/http"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/zalando/proxymap/pathmatch"
	"github.com/zalando/proxymap/route"
)

type tableEntry struct {
	pattern pathmatch.Pattern
	route   *route.Route
	handler http.Handler
	index   int
}

// table is one immutable generation of the path pattern to handler mapping.
// It is built in full by a single rebuild pass and never mutated after
// publication, so lookups need no locking.
type table struct {
	exact map[string]*tableEntry
	wild  []*tableEntry // ordered most specific first
}

func newTable() *table {
	return &table{exact: make(map[string]*tableEntry)}
}

// buildTable registers every route's FullPath against the handler. A later
// definition with the same FullPath silently replaces the earlier one, which
// mirrors the registration contract of a mapping. Definitions with a
// malformed pattern are skipped with a warning so that one bad rule cannot
// black out the rest of the routing.
func buildTable(routes []*route.Route, handler http.Handler, m Metrics) *table {
	entries := make([]*tableEntry, 0, len(routes))
	byPath := make(map[string]int, len(routes))
	for _, r := range routes {
		p, err := pathmatch.Compile(r.FullPath)
		if err != nil {
			m.IncInvalidRoute(r.ID, "invalid_path_pattern")
			log.Warnf("skipping route definition: %v", &definitionError{ID: r.ID, Original: err})
			continue
		}

		if i, ok := byPath[r.FullPath]; ok {
			entries[i].route = r
			continue
		}

		byPath[r.FullPath] = len(entries)
		entries = append(entries, &tableEntry{
			pattern: p,
			route:   r,
			handler: handler,
			index:   len(entries),
		})
	}

	t := newTable()
	for _, e := range entries {
		if e.pattern.Exact() {
			t.exact[e.route.FullPath] = e
		} else {
			t.wild = append(t.wild, e)
		}
	}

	sort.Slice(t.wild, func(i, j int) bool {
		c := pathmatch.Compare(t.wild[i].route.FullPath, t.wild[j].route.FullPath)
		if c != 0 {
			return c < 0
		}

		return t.wild[i].index < t.wild[j].index
	})

	return t
}

// lookup returns the entry of the most specific pattern matching path, nil
// when none matches. Exact patterns take precedence over wildcard ones.
func (t *table) lookup(path string) *tableEntry {
	if e, ok := t.exact[path]; ok {
		return e
	}

	for _, e := range t.wild {
		if e.pattern.Match(path) {
			return e
		}
	}

	return nil
}

func (t *table) size() int {
	return len(t.exact) + len(t.wild)
}
