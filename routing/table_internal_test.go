package routing

import (
	"testing"

	"github.com/zalando/proxymap/route"
)

type countingMetrics struct {
	Metrics
	invalid int
}

func (m *countingMetrics) IncInvalidRoute(_, _ string) { m.invalid++ }

func TestBuildTableSplitsExactAndWildcard(t *testing.T) {
	tb := buildTable([]*route.Route{
		{ID: "a", FullPath: "/a"},
		{ID: "b", FullPath: "/b/**"},
		{ID: "c", FullPath: "/c/*"},
	}, nil, Void)

	if len(tb.exact) != 1 || len(tb.wild) != 2 {
		t.Fatalf("unexpected table shape: %d exact, %d wildcard", len(tb.exact), len(tb.wild))
	}

	if tb.size() != 3 {
		t.Errorf("unexpected size %d", tb.size())
	}
}

func TestBuildTableOrdersWildcardsBySpecificity(t *testing.T) {
	tb := buildTable([]*route.Route{
		{ID: "all", FullPath: "/api/**"},
		{ID: "users", FullPath: "/api/users/*"},
	}, nil, Void)

	if tb.wild[0].route.ID != "users" || tb.wild[1].route.ID != "all" {
		t.Error("wildcard entries not ordered most specific first")
	}
}

func TestBuildTableCountsInvalidDefinitions(t *testing.T) {
	m := &countingMetrics{Metrics: Void}
	tb := buildTable([]*route.Route{
		{ID: "broken", FullPath: "/broken/["},
		{ID: "ok", FullPath: "/ok"},
	}, nil, m)

	if m.invalid != 1 {
		t.Errorf("expected 1 invalid definition, got %d", m.invalid)
	}

	if tb.size() != 1 {
		t.Errorf("expected 1 registered route, got %d", tb.size())
	}
}

func TestLookupPrefersExactEntry(t *testing.T) {
	tb := buildTable([]*route.Route{
		{ID: "wild", FullPath: "/orders/**"},
		{ID: "exact", FullPath: "/orders/1"},
	}, nil, Void)

	e := tb.lookup("/orders/1")
	if e == nil || e.route.ID != "exact" {
		t.Error("exact entry must win over wildcard entries")
	}

	e = tb.lookup("/orders/2")
	if e == nil || e.route.ID != "wild" {
		t.Error("expected the wildcard entry")
	}

	if tb.lookup("/billing") != nil {
		t.Error("expected no entry")
	}
}

func TestEmptyTableLookup(t *testing.T) {
	if newTable().lookup("/orders") != nil {
		t.Error("expected no entry from the empty table")
	}
}
