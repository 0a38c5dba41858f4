package logic

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/idelchi/shadowenv/internal/config"
	"github.com/idelchi/shadowenv/internal/filter"
)

// ErrUnmatched is returned by RunCheck when a pattern excludes nothing.
var ErrUnmatched = errors.New("pattern(s) matched no entries")

// RunCheck validates that every exclude pattern matches at least one entry in the targets.
func RunCheck(cfg *config.Config, out io.Writer) error {
	patterns := append([]string{}, cfg.Exclude...)

	if cfg.ExcludeFrom != "" {
		loaded, err := filter.LoadPatterns(cfg.ExcludeFrom)
		if err != nil {
			return fmt.Errorf("loading exclude patterns: %w", err)
		}

		patterns = append(patterns, loaded...)
	}

	if len(patterns) == 0 {
		return errors.New("no exclude patterns to check")
	}

	candidates, err := collectEntries(cfg.Targets)
	if err != nil {
		return err
	}

	if failures := checkPatterns(patterns, candidates, cfg.Quiet, out); failures > 0 {
		return fmt.Errorf("%d %w", failures, ErrUnmatched)
	}

	return nil
}

// collectEntries walks every target and returns root-relative, slash-separated paths
// of all files and directories below it.
func collectEntries(targets []string) ([]string, error) {
	var paths []string

	for _, target := range targets {
		root := filepath.Clean(target)

		err := filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(root, path)
			if err != nil || rel == "." {
				return err
			}

			paths = append(paths, filepath.ToSlash(rel))

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", target, err)
		}
	}

	return paths, nil
}

// checkPatterns tests each pattern individually against candidates.
// Returns the number of patterns that matched nothing.
func checkPatterns(patterns, candidates []string, quiet bool, out io.Writer) int {
	var failures int

	for _, pattern := range patterns {
		flt, err := filter.New([]string{pattern})
		if err != nil {
			fmt.Fprintf(out, "exclude: %s: invalid pattern: %v\n", pattern, err)

			failures++

			continue
		}

		var count int

		for _, path := range candidates {
			if flt.Excluded(path) {
				count++
			}
		}

		if count == 0 {
			fmt.Fprintf(out, "exclude: %s: 0 entries (ERROR)\n", pattern)

			failures++
		} else if !quiet {
			fmt.Fprintf(out, "exclude: %s: %d entries\n", pattern, count)
		}
	}

	return failures
}
