package archive

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Filter decides which archive entries are skipped. Excludes are matched
// against the entry path and, for directories, also against the path with a
// trailing slash, so "build/" excludes only directories.
type Filter struct {
	excludes []glob.Glob
}

// NewFilter compiles exclude patterns into a reusable filter.
func NewFilter(excludes []string) (*Filter, error) {
	flt := &Filter{excludes: make([]glob.Glob, 0, len(excludes))}

	for _, pattern := range normalizePatterns(excludes) {
		if pattern == "" {
			continue
		}

		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling exclude pattern %q: %w", pattern, err)
		}

		flt.excludes = append(flt.excludes, compiled)
	}

	return flt, nil
}

// Excluded reports whether the slash-separated relative path should be left out.
func (f *Filter) Excluded(path string, isDir bool) bool {
	for _, g := range f.excludes {
		if g.Match(path) || (isDir && g.Match(path+"/")) {
			return true
		}
	}

	return false
}

// normalizePatterns strips leading "./" from patterns so they match cleaned paths.
func normalizePatterns(patterns []string) []string {
	out := make([]string, len(patterns))

	for i, p := range patterns {
		out[i] = strings.TrimPrefix(strings.TrimSpace(p), "./")
	}

	return out
}
