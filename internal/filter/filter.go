// Package filter selects files based on include/exclude patterns using find -path semantics.
package filter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/idelchi/idxcrypt/pkg/pathmatch"
)

// ErrNoMatch is returned when the arguments resolve to no files at all.
var ErrNoMatch = errors.New("no files matched the provided patterns")

// Entry is a file selected for processing.
type Entry struct {
	// Path is the file path as reachable from the working directory.
	Path string
	// Rel is Path relative to the parent of the argument it was found under.
	// It is used to mirror the input tree below an output directory.
	Rel string
}

// Filter selects files based on include/exclude patterns using find -path semantics.
// Empty includes means "match all". Excludes always win.
type Filter struct {
	includes *pathmatch.Matcher
	excludes *pathmatch.Matcher
}

// NewFilter compiles include/exclude patterns into a reusable filter.
func NewFilter(includes, excludes []string) (*Filter, error) {
	inc, err := pathmatch.NewMatcher(normalizePatterns(includes))
	if err != nil {
		return nil, fmt.Errorf("compiling include patterns: %w", err)
	}

	exc, err := pathmatch.NewMatcher(normalizePatterns(excludes))
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	return &Filter{includes: inc, excludes: exc}, nil
}

// Match returns true if the slash-separated path should be included.
func (f *Filter) Match(path string, hasIncludes bool) bool {
	included := !hasIncludes || f.includes.MatchAny(path)
	excluded := f.excludes.MatchAny(path)

	return included && !excluded
}

// normalizePatterns strips leading "./" from patterns so they match cleaned paths.
func normalizePatterns(patterns []string) []string {
	out := make([]string, len(patterns))

	for i, p := range patterns {
		out[i] = strings.TrimPrefix(p, "./")
	}

	return out
}

// Resolve takes positional args (files/directories) and include/exclude patterns.
// Files are added directly (bypassing filtering). Directories are walked and filtered.
// hasIncludes indicates whether include filtering was requested (flag provided),
// regardless of whether the pattern list is empty.
// Returns matched entries and total candidates scanned.
func Resolve(fs afero.Fs, args, includes, excludes []string, hasIncludes bool) (entries []Entry, scanned int, err error) {
	flt, err := NewFilter(includes, excludes)
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]struct{})

	add := func(entry Entry) {
		if _, ok := seen[entry.Path]; ok {
			return
		}

		seen[entry.Path] = struct{}{}
		entries = append(entries, entry)
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := fs.Stat(arg)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			// Explicit file: bypass filtering, add directly.
			scanned++

			add(Entry{Path: arg, Rel: filepath.Base(arg)})

			continue
		}

		// Directory: walk and filter.
		walked, total, err := walkDir(fs, arg, flt, hasIncludes)
		if err != nil {
			return nil, 0, err
		}

		scanned += total

		for _, entry := range walked {
			add(entry)
		}
	}

	if len(entries) == 0 {
		return nil, scanned, fmt.Errorf("%w: %v", ErrNoMatch, args)
	}

	return entries, scanned, nil
}

// walkDir walks root recursively, returning files that pass the filter.
// Paths are relative to cwd (e.g. "src/main.go" when root is ".").
func walkDir(fs afero.Fs, root string, flt *Filter, hasIncludes bool) (entries []Entry, total int, err error) {
	base := filepath.Dir(root)

	err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		total++

		// Use forward slashes for pattern matching consistency.
		clean := filepath.ToSlash(filepath.Clean(path))

		if !flt.Match(clean, hasIncludes) {
			return nil
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return fmt.Errorf("relativizing %q: %w", path, err)
		}

		entries = append(entries, Entry{Path: path, Rel: rel})

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walking %q: %w", root, err)
	}

	return entries, total, nil
}
