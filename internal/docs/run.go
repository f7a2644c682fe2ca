package docs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	derrors "git.home.luguber.info/inful/mdredirect/internal/docs/errors"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/logfields"
)

// Mode selects whether a run writes changes back.
type Mode int

const (
	// ModeWrite rewrites changed documents in place.
	ModeWrite Mode = iota
	// ModeDryRun only reports what would change.
	ModeDryRun
)

func (m Mode) String() string {
	if m == ModeDryRun {
		return "dry-run"
	}
	return "write"
}

// RunResult summarizes a run over many documents.
type RunResult struct {
	RunID     string
	Mode      Mode
	Files     []FileResult
	Scanned   int
	Changed   int
	Skipped   int
	Fallbacks int
	Links     int
	Texts     int
	Duration  time.Duration
}

// Matches returns the number of rewritten references across the run.
func (r RunResult) Matches() int { return r.Links + r.Texts }

func (r *RunResult) add(fr FileResult) {
	r.Files = append(r.Files, fr)
	r.Scanned++
	switch {
	case fr.Skipped:
		r.Skipped++
	case fr.Fallback != nil:
		r.Fallbacks++
	case fr.Changed:
		r.Changed++
	}
	r.Links += fr.Links
	r.Texts += fr.Texts
}

// Expand resolves files and directories into the documents a run processes.
// Files named explicitly are always included; directories are walked with the
// processor's selector. Duplicates are dropped and order is preserved.
func (p *Processor) Expand(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	addPath := func(path string) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.WrapError(fmt.Errorf("%w: %w", derrors.ErrPathNotFound, err), errors.CategoryFileSystem, "stat document path").
				WithContext("path", path).
				Build()
		}
		if !info.IsDir() {
			addPath(path)
			continue
		}
		files, err := Discover(path, p.selector)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			addPath(f)
		}
	}
	return out, nil
}

// Run processes paths (files or directories). Cancellation is checked between
// documents. A read or write failure stops the run and returns the partial
// result with the error.
func (p *Processor) Run(ctx context.Context, paths []string, mode Mode) (RunResult, error) {
	start := time.Now()
	result := RunResult{RunID: uuid.NewString(), Mode: mode}
	logger := p.logger.With(logfields.RunID(result.RunID))

	files, err := p.Expand(paths)
	if err != nil {
		return result, err
	}
	logger.Info("Starting rewrite run", slog.Int("files", len(files)), slog.String("mode", mode.String()))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		fr, err := p.ProcessFile(path)
		if err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		if fr.Changed && mode == ModeWrite {
			if err := WriteResult(fr); err != nil {
				result.Duration = time.Since(start)
				return result, err
			}
		}
		if fr.Changed {
			logger.Debug("Document rewritten", logfields.Path(path), logfields.Matches(fr.Matches()))
		}
		result.add(fr)
	}

	result.Duration = time.Since(start)
	logger.Info("Rewrite run complete",
		slog.Int("scanned", result.Scanned),
		slog.Int("changed", result.Changed),
		slog.Int("skipped", result.Skipped),
		slog.Int("fallbacks", result.Fallbacks),
		logfields.Matches(result.Matches()),
		logfields.Duration(result.Duration))
	return result, nil
}
