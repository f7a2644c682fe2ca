package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/mdredirect/internal/docs"
	"git.home.luguber.info/inful/mdredirect/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Dir           string        `arg:"" optional:"" default:"." help:"Directory to watch" type:"existingdir"`
	DryRun        bool          `name:"dry-run" help:"Report changes without writing files"`
	InitialSweep  bool          `name:"initial-sweep" negatable:"" default:"true" help:"Rewrite every document once before watching"`
	Debounce      time.Duration `help:"Quiet period before a changed file is rewritten (overrides watch.debounce)"`
	SweepInterval time.Duration `name:"sweep-interval" help:"Interval between full sweeps, 0 keeps the configured value"`
}

func (c *WatchCmd) Run(ctx context.Context, g *Global) error {
	processor, err := g.newProcessor(nil)
	if err != nil {
		return err
	}

	opts := watch.Options{
		Debounce:      g.Config.Watch.Debounce,
		SweepInterval: g.Config.Watch.SweepInterval,
		Mode:          docs.ModeWrite,
		InitialSweep:  c.InitialSweep,
		Logger:        g.Logger,
	}
	if c.Debounce > 0 {
		opts.Debounce = c.Debounce
	}
	if c.SweepInterval > 0 {
		opts.SweepInterval = c.SweepInterval
	}
	verb := "rewrote"
	if c.DryRun {
		opts.Mode = docs.ModeDryRun
		verb = "would rewrite"
	}
	opts.OnResult = func(res docs.FileResult) {
		switch {
		case res.Fallback != nil:
			printFallback(g.Stderr, res)
		case res.Changed:
			changedColor.Fprintf(g.Stdout, "%s %s", verb, res.Path)
			fmt.Fprintf(g.Stdout, " (%d links, %d texts)\n", res.Links, res.Texts)
		}
	}

	w, err := watch.New(c.Dir, processor, opts)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
