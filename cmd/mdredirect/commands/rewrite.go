package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/mdredirect/internal/docs"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

// stdinPath selects standard input as the document source.
const stdinPath = "-"

// RewriteCmd implements the 'rewrite' command.
type RewriteCmd struct {
	Paths  []string `arg:"" optional:"" help:"Files or directories to rewrite ('-' reads standard input)"`
	DryRun bool     `name:"dry-run" help:"Report changes without writing files"`
	Diff   bool     `help:"Print a diff for every changed document"`
	Check  bool     `help:"Exit with status 1 when any document would change (implies --dry-run)"`
}

func (r *RewriteCmd) Run(ctx context.Context, g *Global) error {
	processor, err := g.newProcessor(nil)
	if err != nil {
		return err
	}

	if r.readsStdin(g.Stdin) {
		return r.rewriteStdin(g, processor)
	}

	paths := r.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	mode := docs.ModeWrite
	if r.DryRun || r.Check {
		mode = docs.ModeDryRun
	}

	result, err := processor.Run(ctx, paths, mode)
	if err != nil {
		return err
	}

	if r.Diff {
		for _, f := range result.Files {
			if f.Changed {
				printDiff(g.Stdout, f.Path, f.Original, f.Content)
			}
		}
	}
	printSummary(g.Stdout, result)

	if r.Check && result.Changed > 0 {
		return ErrChangesPending
	}
	return nil
}

// readsStdin reports whether the document comes from standard input: either
// requested explicitly with '-' or implied by piped input and no paths.
func (r *RewriteCmd) readsStdin(stdin io.Reader) bool {
	if len(r.Paths) == 1 && r.Paths[0] == stdinPath {
		return true
	}
	if len(r.Paths) > 0 || stdin == nil {
		return false
	}
	f, ok := stdin.(*os.File)
	if !ok {
		return true
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

func (r *RewriteCmd) rewriteStdin(g *Global, processor *docs.Processor) error {
	data, err := io.ReadAll(g.Stdin)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read standard input").Build()
	}

	res := processor.ProcessContent("stdin", string(data))
	switch {
	case r.Diff:
		if res.Changed {
			printDiff(g.Stdout, "stdin", res.Original, res.Content)
		}
	case !r.Check:
		if _, err := io.WriteString(g.Stdout, res.Content); err != nil {
			return fmt.Errorf("write standard output: %w", err)
		}
	}
	if res.Fallback != nil {
		printFallback(g.Stderr, res)
	}

	if r.Check && res.Changed {
		return ErrChangesPending
	}
	return nil
}
