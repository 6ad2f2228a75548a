package pathmatch

import (
	"sort"
	"testing"
)

func TestMatch(t *testing.T) {
	for _, test := range []struct {
		pattern string
		path    string
		matches bool
	}{
		{"/orders", "/orders", true},
		{"/orders", "/orders/", false},
		{"/orders", "/Orders", false},

		{"/orders/?", "/orders/1", true},
		{"/orders/?", "/orders/12", false},
		{"/orders/?", "/orders/", false},
		{"/orders/?", "/orders/a/", false},

		{"/orders/*", "/orders/1", true},
		{"/orders/*", "/orders/abc", true},
		{"/orders/*", "/orders/", true},
		{"/orders/*", "/orders", false},
		{"/orders/*", "/orders/1/items", false},
		{"/ord*s", "/orders", true},
		{"/ord*s", "/ords", true},
		{"/ord*s", "/ord/s", false},

		{"/orders/**", "/orders/1", true},
		{"/orders/**", "/orders/1/items/2", true},
		{"/orders/**", "/orders/", true},
		{"/orders/**", "/orders", true},
		{"/orders/**", "/ordering", false},
		{"/**", "/", true},
		{"/**", "/a/b/c", true},
		{"**", "/a/b/c", true},

		{"/a/**/b", "/a/b", true},
		{"/a/**/b", "/a/x/b", true},
		{"/a/**/b", "/a/x/y/b", true},
		{"/a/**/b", "/a/x", false},

		{"/api/*/status", "/api/orders/status", true},
		{"/api/*/status", "/api/orders/1/status", false},

		// malformed patterns match nothing
		{"/orders/[", "/orders/[", false},
		{"/orders/{1}", "/orders/1", false},
		{"", "/orders", false},
	} {
		if m := Match(test.pattern, test.path); m != test.matches {
			t.Errorf("Match(%q, %q) = %v, expected %v", test.pattern, test.path, m, test.matches)
		}
	}
}

func TestCompileMalformed(t *testing.T) {
	for _, pattern := range []string{"", "/a/{b,c}", "/a/[bc]", `/a/\b`} {
		if _, err := Compile(pattern); err == nil {
			t.Errorf("expected compile error for %q", pattern)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()

	MustCompile("/a/[")
}

func TestExact(t *testing.T) {
	if p := MustCompile("/orders/1"); !p.Exact() {
		t.Error("literal pattern not recognized as exact")
	}

	if p := MustCompile("/orders/*"); p.Exact() {
		t.Error("wildcard pattern recognized as exact")
	}
}

func TestCompare(t *testing.T) {
	for _, test := range []struct {
		more, less string
	}{
		{"/api/users/42", "/api/users/*"},
		{"/api/users/*", "/api/**"},
		{"/api/users/42", "/api/**"},
		{"/api/users/?", "/api/users/*"},
		{"/api/users/*", "/api/*/*"},
		{"/api/users/*/orders/*", "/api/**"},
		{"/api/users/longer/*", "/api/u/*"},
	} {
		if c := Compare(test.more, test.less); c >= 0 {
			t.Errorf("Compare(%q, %q) = %d, expected negative", test.more, test.less, c)
		}

		if c := Compare(test.less, test.more); c <= 0 {
			t.Errorf("Compare(%q, %q) = %d, expected positive", test.less, test.more, c)
		}
	}

	if c := Compare("/api/ab/*", "/api/cd/*"); c != 0 {
		t.Errorf("expected equally specific patterns to compare equal, got %d", c)
	}
}

func TestCompareSortsMostSpecificFirst(t *testing.T) {
	patterns := []string{"/api/**", "/api/users/42", "/api/users/*"}
	sort.Slice(patterns, func(i, j int) bool {
		return Compare(patterns[i], patterns[j]) < 0
	})

	expected := []string{"/api/users/42", "/api/users/*", "/api/**"}
	for i, p := range expected {
		if patterns[i] != p {
			t.Fatalf("unexpected order: %v", patterns)
		}
	}
}
