// Package exclude decides which entries of a directory are skipped while
// mirroring, diffing and pruning package trees.
//
// Patterns are shell globs (`*`, `?`, `[...]`, `[!...]`) matched against the
// base name of each entry in the directory currently being visited, never
// against a relative path. A pattern such as `build` therefore excludes every
// entry named build at any depth, and `src/*.pyc` excludes nothing.
package exclude

import (
	"path/filepath"
	"sort"
	"strings"
)

// Set is an unordered collection of glob patterns. The zero value excludes
// nothing.
type Set struct {
	patterns []string
	compiled []string
}

// New builds a Set from patterns. Duplicates and blank patterns are dropped.
func New(patterns ...string) Set {
	seen := make(map[string]struct{}, len(patterns))
	var s Set
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		s.patterns = append(s.patterns, p)
	}
	sort.Strings(s.patterns)
	s.compiled = make([]string, len(s.patterns))
	for i, p := range s.patterns {
		s.compiled[i] = translate(p)
	}
	return s
}

// Union returns the set union of lists.
func Union(lists ...[]string) Set {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return New(all...)
}

// With returns a copy of s extended with patterns.
func (s Set) With(patterns ...string) Set {
	return Union(s.patterns, patterns)
}

// Patterns returns the patterns in sorted order.
func (s Set) Patterns() []string {
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Len returns the number of distinct patterns.
func (s Set) Len() int {
	return len(s.patterns)
}

// Match reports whether the base name of name matches any pattern.
func (s Set) Match(name string) bool {
	base := filepath.Base(name)
	for i, p := range s.compiled {
		matched, err := filepath.Match(p, base)
		if err != nil {
			// Malformed globs degrade to a literal comparison.
			matched = s.patterns[i] == base
		}
		if matched {
			return true
		}
	}
	return false
}

// Ignored returns the subset of names, which are the entries of dir, that
// match the set. Order follows names. dir is accepted so the call mirrors a
// per-directory ignore callback; matching never looks at it.
func (s Set) Ignored(dir string, names []string) []string {
	if len(s.compiled) == 0 {
		return nil
	}
	var ignored []string
	for _, name := range names {
		if s.Match(name) {
			ignored = append(ignored, name)
		}
	}
	return ignored
}

// Filter returns names minus the ignored ones.
func (s Set) Filter(dir string, names []string) []string {
	ignored := s.Ignored(dir, names)
	if len(ignored) == 0 {
		return names
	}
	skip := make(map[string]struct{}, len(ignored))
	for _, n := range ignored {
		skip[n] = struct{}{}
	}
	kept := make([]string, 0, len(names)-len(ignored))
	for _, n := range names {
		if _, ok := skip[n]; !ok {
			kept = append(kept, n)
		}
	}
	return kept
}

// translate rewrites an fnmatch-style glob into filepath.Match syntax:
// `[!...]` negation becomes `[^...]`, backslashes are literal, a leading `^`
// inside a class is literal and an unterminated `[` matches itself.
func translate(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
			i++
		case '[':
			end := classEnd(pattern, i)
			if end < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			class := pattern[i+1 : end]
			b.WriteByte('[')
			switch {
			case strings.HasPrefix(class, "!"):
				b.WriteByte('^')
				class = class[1:]
			case strings.HasPrefix(class, "^"):
				b.WriteString(`\^`)
				class = class[1:]
			}
			b.WriteString(translateClass(class))
			b.WriteByte(']')
			i = end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// translateClass escapes the class body characters filepath.Match would
// reject: backslashes, `]`, and a `-` that cannot be a range operator.
func translateClass(class string) string {
	var b strings.Builder
	for i := 0; i < len(class); i++ {
		c := class[i]
		switch {
		case c == '\\' || c == ']':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '-' && (i == 0 || i == len(class)-1):
			b.WriteString(`\-`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// classEnd returns the index of the `]` closing the class opened at start,
// or -1. A `]` directly after `[` or `[!` is part of the class.
func classEnd(p string, start int) int {
	j := start + 1
	if j < len(p) && p[j] == '!' {
		j++
	}
	if j < len(p) && p[j] == ']' {
		j++
	}
	for j < len(p) && p[j] != ']' {
		j++
	}
	if j >= len(p) {
		return -1
	}
	return j
}
