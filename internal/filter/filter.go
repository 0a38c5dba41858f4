// Package filter decides which entries of a source tree are left out of an archive,
// using doublestar patterns matched against tree-relative, slash-separated paths.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter excludes paths matching any of its patterns.
// A pattern without a slash also matches the base name at any depth,
// so "*.log" excludes "a/b/c.log".
type Filter struct {
	patterns []string
}

// New validates and normalizes patterns into a Filter.
func New(patterns []string) (*Filter, error) {
	normalized := make([]string, 0, len(patterns))

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		p = strings.TrimPrefix(p, "./")
		p = strings.TrimSuffix(p, "/")

		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}

		normalized = append(normalized, p)
	}

	return &Filter{patterns: normalized}, nil
}

// Excluded reports whether rel (slash-separated, relative to the tree root) is excluded.
// A nil Filter excludes nothing.
func (f *Filter) Excluded(rel string) bool {
	if f == nil {
		return false
	}

	base := path.Base(rel)

	for _, p := range f.patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}

		if !strings.Contains(p, "/") && doublestar.MatchUnvalidated(p, base) {
			return true
		}
	}

	return false
}

// Patterns returns the normalized patterns.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}

	return append([]string(nil), f.patterns...)
}

// Validate reports the first syntactically invalid pattern.
func Validate(patterns []string) error {
	_, err := New(patterns)

	return err
}
