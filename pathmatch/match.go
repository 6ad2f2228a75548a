// Package pathmatch implements Ant-style glob matching for request paths:
// '?' matches exactly one character, '*' matches any number of characters
// within one path segment, and '**' matches any number of path segments. The
// package also defines the specificity order used to pick the best matching
// pattern for a concrete path.
package pathmatch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Pattern is a compiled path pattern.
type Pattern struct {
	source string
	exact  bool
	g      glob.Glob
}

// characters reserved by the underlying glob syntax that have no meaning in
// Ant-style patterns
const reserved = "{}[]\\"

// Compile compiles an Ant-style path pattern. Patterns containing glob
// syntax beyond '?', '*' and '**' are rejected as malformed.
func Compile(pattern string) (Pattern, error) {
	if pattern == "" {
		return Pattern{}, fmt.Errorf("empty path pattern")
	}

	if i := strings.IndexAny(pattern, reserved); i >= 0 {
		return Pattern{}, fmt.Errorf("invalid character %q in path pattern %s", pattern[i], pattern)
	}

	if !strings.ContainsAny(pattern, "*?") {
		return Pattern{source: pattern, exact: true}, nil
	}

	g, err := glob.Compile(translate(pattern), '/')
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid path pattern %s: %w", pattern, err)
	}

	return Pattern{source: pattern, g: g}, nil
}

// MustCompile is like Compile but panics on malformed patterns. Intended for
// patterns fixed at compile time.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}

	return p
}

// A '**' segment matches zero or more path segments, so '/a/**' also matches
// '/a' and '/a/**/b' also matches '/a/b'. The underlying glob library treats
// '**' as a plain unbounded wildcard, the surrounding separators included,
// which is rewritten here into the zero-or-more form.
func translate(pattern string) string {
	if strings.HasSuffix(pattern, "/**") {
		pattern = pattern[:len(pattern)-3] + "{,/**}"
	}

	return strings.ReplaceAll(pattern, "/**/", "{/,/**/}")
}

// Match reports whether path matches the compiled pattern.
func (p Pattern) Match(path string) bool {
	if p.exact {
		return p.source == path
	}

	return p.g.Match(path)
}

// Exact reports whether the pattern contains no wildcards and therefore only
// matches its own literal text.
func (p Pattern) Exact() bool { return p.exact }

func (p Pattern) String() string { return p.source }

var compiled sync.Map // pattern string -> Pattern or error

func cached(pattern string) (Pattern, error) {
	if v, ok := compiled.Load(pattern); ok {
		if p, ok := v.(Pattern); ok {
			return p, nil
		}

		return Pattern{}, v.(error)
	}

	p, err := Compile(pattern)
	if err != nil {
		compiled.Store(pattern, err)
		return Pattern{}, err
	}

	compiled.Store(pattern, p)
	return p, nil
}

// Match reports whether path matches the Ant-style pattern. Compiled
// patterns are cached, so repeated checks against the same pattern don't pay
// the compilation cost. Malformed patterns match nothing.
func Match(pattern, path string) bool {
	p, err := cached(pattern)
	if err != nil {
		return false
	}

	return p.Match(path)
}

// Compare orders two patterns by specificity. It returns a negative value
// when a is more specific than b, positive when less, and zero when they
// can only be distinguished by their registration order. An exact literal
// outranks any wildcard pattern, fewer multi-segment wildcards outrank more,
// then fewer single-segment wildcards, then fewer single-character
// wildcards, then longer literal text.
func Compare(a, b string) int {
	da, sa, qa, la := count(a)
	db, sb, qb, lb := count(b)

	ea := da == 0 && sa == 0 && qa == 0
	eb := db == 0 && sb == 0 && qb == 0
	switch {
	case ea && !eb:
		return -1
	case eb && !ea:
		return 1
	}

	if da != db {
		return da - db
	}

	if sa != sb {
		return sa - sb
	}

	if qa != qb {
		return qa - qb
	}

	return lb - la
}

func count(pattern string) (doubleStars, singleStars, questions, literal int) {
	for i := 0; i < len(pattern); {
		switch pattern[i] {
		case '*':
			j := i
			for j < len(pattern) && pattern[j] == '*' {
				j++
			}

			if j-i > 1 {
				doubleStars++
			} else {
				singleStars++
			}

			i = j
		case '?':
			questions++
			i++
		default:
			literal++
			i++
		}
	}

	return
}
