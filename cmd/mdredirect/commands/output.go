package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"git.home.luguber.info/inful/mdredirect/internal/docs"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

var (
	headerColor  = color.New(color.Bold)
	addColor     = color.New(color.FgGreen)
	removeColor  = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	changedColor = color.New(color.FgGreen, color.Bold)
)

// printDiff writes a line diff of before and after. Unchanged lines are omitted.
func printDiff(w io.Writer, path, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	headerColor.Fprintf(w, "--- %s\n+++ %s\n", path, path)
	for _, d := range diffs {
		var (
			prefix string
			c      *color.Color
		)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, c = "-", removeColor
		case diffmatchpatch.DiffInsert:
			prefix, c = "+", addColor
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			c.Fprint(w, prefix+strings.TrimSuffix(line, "\n"))
			fmt.Fprintln(w)
		}
	}
}

func printFallback(w io.Writer, res docs.FileResult) {
	warnColor.Fprintf(w, "left unchanged: %s (%s: %v)\n", res.Path, errors.GetCategory(res.Fallback), res.Fallback)
}

// printSummary reports per-document changes followed by run totals.
func printSummary(w io.Writer, result docs.RunResult) {
	verb := "rewrote"
	if result.Mode == docs.ModeDryRun {
		verb = "would rewrite"
	}
	for _, f := range result.Files {
		switch {
		case f.Fallback != nil:
			printFallback(w, f)
		case f.Changed:
			changedColor.Fprintf(w, "%s %s", verb, f.Path)
			fmt.Fprintf(w, " (%d links, %d texts)\n", f.Links, f.Texts)
		}
	}
	fmt.Fprintf(w, "%d scanned, %d changed, %d skipped, %d left unchanged after errors, %d references (%s)\n",
		result.Scanned, result.Changed, result.Skipped, result.Fallbacks, result.Matches(), result.Mode)
}
