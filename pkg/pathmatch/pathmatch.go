// Package pathmatch implements find -path matching semantics.
//
// It follows fnmatch(3) without FNM_PATHNAME:
//   - * matches any characters including /
//   - ? matches exactly one character including /
//   - [...] matches one character from the set including /, [!...] negates
//   - \ escapes the next character
//
// Patterns are compiled with gobwas/glob without separators, so wildcards cross
// directory boundaries. This differs from Go's filepath.Match.
package pathmatch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Match reports whether path matches the pattern using find -path semantics.
func Match(pattern, path string) (bool, error) {
	g, err := compile(pattern)
	if err != nil {
		return false, err
	}

	return g.Match(path), nil
}

// Matcher pre-compiles patterns for reuse across many paths.
type Matcher struct {
	patterns []glob.Glob
}

// NewMatcher compiles the given patterns into a reusable matcher.
func NewMatcher(patterns []string) (*Matcher, error) {
	matcher := &Matcher{patterns: make([]glob.Glob, len(patterns))}

	for idx, p := range patterns {
		g, err := compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}

		matcher.patterns[idx] = g
	}

	return matcher, nil
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// MatchAny reports whether path matches any of the compiled patterns.
func (m *Matcher) MatchAny(path string) bool {
	for _, g := range m.patterns {
		if g.Match(path) {
			return true
		}
	}

	return false
}

var cache sync.Map //nolint:gochecknoglobals // compiled globs are immutable and shared

// compile converts a find -path pattern into a cached glob.
func compile(pattern string) (glob.Glob, error) {
	if v, ok := cache.Load(pattern); ok {
		cached, _ := v.(glob.Glob) //nolint:errcheck // type is guaranteed by cache.Store below

		return cached, nil
	}

	if trailing := len(pattern) - len(strings.TrimRight(pattern, `\`)); trailing%2 == 1 {
		return nil, fmt.Errorf("trailing backslash in pattern %q", pattern)
	}

	g, err := glob.Compile(toGlob(pattern))
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}

	cache.Store(pattern, g)

	return g, nil
}

// toGlob escapes the characters gobwas/glob treats specially but fnmatch does not.
func toGlob(pattern string) string {
	var buf strings.Builder

	inClass := false

	for pos := 0; pos < len(pattern); pos++ {
		ch := pattern[pos]

		switch {
		case ch == '\\' && pos+1 < len(pattern):
			buf.WriteByte(ch)
			buf.WriteByte(pattern[pos+1])

			pos++
		case ch == '[' && !inClass:
			inClass = true

			buf.WriteByte(ch)
		case ch == ']' && inClass:
			inClass = false

			buf.WriteByte(ch)
		case !inClass && (ch == '{' || ch == '}' || ch == ','):
			buf.WriteByte('\\')
			buf.WriteByte(ch)
		default:
			buf.WriteByte(ch)
		}
	}

	return buf.String()
}
