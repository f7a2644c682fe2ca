package commands

import (
	"io"
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdredirect/internal/config"
	"git.home.luguber.info/inful/mdredirect/internal/docs"
	"git.home.luguber.info/inful/mdredirect/internal/markdown"
	"git.home.luguber.info/inful/mdredirect/internal/metrics"
	"git.home.luguber.info/inful/mdredirect/internal/redirect"
)

// Global carries state shared by every command.
type Global struct {
	Logger *slog.Logger
	Config *config.Config

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mdredirect.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Rewrite    RewriteCmd    `cmd:"" help:"Rewrite issue, pull request and discussion links in markdown files"`
	Watch      WatchCmd      `cmd:"" help:"Watch a directory and rewrite markdown files as they change"`
	Serve      ServeCmd      `cmd:"" help:"Serve the rewrite HTTP API"`
	BranchName BranchNameCmd `cmd:"" name:"branch-name" help:"Generate a branch name for a dependency update"`
	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
}

// newLogger builds the process logger from the logging section and -v.
func newLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newProcessor assembles the rewrite pipeline described by the configuration.
func (g *Global) newProcessor(recorder metrics.Recorder) (*docs.Processor, error) {
	cfg := g.Config
	rewriter, err := redirect.NewRewriter(
		redirect.WithPlatform(cfg.Platform.Redirect()),
		redirect.WithMatchTimeout(cfg.Platform.MatchTimeout),
		redirect.WithParser(markdown.NewParser(markdown.Options{GFM: cfg.Markdown.GFM})),
		redirect.WithLogger(g.Logger),
	)
	if err != nil {
		return nil, err
	}
	selector, err := docs.NewSelector(cfg.Files.Include, cfg.Files.Exclude)
	if err != nil {
		return nil, err
	}
	opts := []docs.ProcessorOption{
		docs.WithLogger(g.Logger),
		docs.WithSelector(selector),
		docs.WithFrontmatter(cfg.Files.FrontmatterEnabled()),
		docs.WithOptOutKey(cfg.Files.OptOutKey),
	}
	if recorder != nil {
		opts = append(opts, docs.WithRecorder(recorder))
	}
	return docs.NewProcessor(rewriter, opts...)
}
