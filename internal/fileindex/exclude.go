package fileindex

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/raccreative/clawdrop/internal/syncerr"
)

// crossStar stands in for a single `*` when it may span directories:
// a tail of one element, any number of elements, a head of another.
const crossStar = "*/**/*"

// ExcludeMatcher tests root-relative slash paths against glob patterns.
//
// Patterns use doublestar syntax, except that a lone `*` also crosses
// separators, so `build/*.pdb` excludes `build/sub/y.pdb`. A pattern
// without a slash is also tried against the last path element.
type ExcludeMatcher struct {
	patterns []string
	globs    []string
	bases    []string
}

// NewExcludeMatcher validates every pattern before anything touches the disk.
func NewExcludeMatcher(patterns []string) (*ExcludeMatcher, error) {
	m := &ExcludeMatcher{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, syncerr.Wrap(syncerr.ErrPattern, fmt.Sprintf("pattern %q", p), doublestar.ErrBadPattern)
		}
		m.patterns = append(m.patterns, p)
		m.globs = append(m.globs, expandStars(p)...)
		if !strings.Contains(p, "/") {
			m.bases = append(m.bases, p)
		}
	}
	return m, nil
}

func (m *ExcludeMatcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	base := path.Base(rel)
	for _, p := range m.bases {
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (m *ExcludeMatcher) Patterns() []string {
	return m.patterns
}

// expandStars returns every variant of p where each lone `*` is either
// kept or replaced by crossStar. `**`, escaped stars and stars inside
// character classes are left alone.
func expandStars(p string) []string {
	var lone []int
	inClass := false
	for i := 0; i < len(p); i++ {
		switch c := p[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '*':
			prev := i > 0 && p[i-1] == '*'
			next := i+1 < len(p) && p[i+1] == '*'
			if !prev && !next {
				lone = append(lone, i)
			}
		}
	}

	variants := []string{p}
	// walk right to left so earlier offsets stay valid
	for j := len(lone) - 1; j >= 0; j-- {
		at := lone[j]
		n := len(variants)
		for _, v := range variants[:n] {
			variants = append(variants, v[:at]+crossStar+v[at+1:])
		}
	}
	return variants
}
