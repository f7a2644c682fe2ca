package docs

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	derrors "git.home.luguber.info/inful/mdredirect/internal/docs/errors"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/logfields"
)

// DefaultInclude selects markdown files when no include pattern is given.
var DefaultInclude = []string{"**/*.md", "**/*.markdown"}

// skippedDirs are never descended into.
var skippedDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
}

// Selector decides which files below a root are processed. Patterns use
// slash-separated paths relative to the root; "**/" also matches zero
// directories.
type Selector struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewSelector compiles include and exclude patterns. An empty include list
// selects DefaultInclude.
func NewSelector(include, exclude []string) (*Selector, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	in, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	ex, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}
	return &Selector{include: in, exclude: ex}, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		for _, v := range superVariants(p) {
			g, err := glob.Compile(v, '/')
			if err != nil {
				return nil, errors.WrapError(fmt.Errorf("%w: %w", derrors.ErrInvalidPattern, err), errors.CategoryConfig, "compile file pattern").
					WithContext("pattern", p).
					Build()
			}
			out = append(out, g)
		}
	}
	return out, nil
}

// superVariants expands every "**/" in pattern into both itself and nothing,
// so "docs/**/*.md" also selects "docs/a.md".
func superVariants(pattern string) []string {
	before, after, ok := strings.Cut(pattern, "**/")
	if !ok {
		return []string{pattern}
	}
	var out []string
	for _, rest := range superVariants(after) {
		out = append(out, before+"**/"+rest, before+rest)
	}
	return out
}

// Match reports whether the slash-separated relative path is selected.
func (s *Selector) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	return matchAny(s.include, rel) && !matchAny(s.exclude, rel)
}

// excludesDir reports whether every file below the directory is excluded.
func (s *Selector) excludesDir(rel string) bool {
	return matchAny(s.exclude, filepath.ToSlash(rel)+"/")
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Discover walks root and returns the selected markdown files in sorted order.
// Hidden directories, node_modules and vendor are skipped.
func Discover(root string, selector *Selector) ([]string, error) {
	if selector == nil {
		var err error
		if selector, err = NewSelector(nil, nil); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(root); err != nil {
		return nil, errors.WrapError(fmt.Errorf("%w: %w", derrors.ErrPathNotFound, err), errors.CategoryFileSystem, "stat document root").
			WithContext("path", root).
			Build()
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("%w: %w", derrors.ErrInvalidRelativePath, err)
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if SkipDir(d.Name()) || selector.excludesDir(rel) {
				slog.Debug("Skipping directory", logfields.Path(path))
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !selector.Match(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(fmt.Errorf("%w: %w", derrors.ErrDirWalkFailed, err), errors.CategoryFileSystem, "walk document root").
			WithContext("path", root).
			Build()
	}

	slices.Sort(files)
	slog.Debug("Documents discovered", logfields.Path(root), slog.Int("count", len(files)))
	return files, nil
}

// SkipDir reports whether a directory with this base name is never walked.
func SkipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	_, skip := skippedDirs[name]
	return skip
}
