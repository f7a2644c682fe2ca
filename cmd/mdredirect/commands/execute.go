package commands

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdredirect/internal/config"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/version"
)

// ErrChangesPending is returned by `rewrite --check` when documents would change.
var ErrChangesPending = stderrors.New("documents would be rewritten")

// exitSignal unwinds Execute when kong asks to exit (--help, --version).
type exitSignal int

// Execute parses args, runs the selected command and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("mdredirect"),
		kong.Description("Rewrite GitHub issue, pull request and discussion links in markdown to redirect.github.com."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitSignal(c)) }),
	)
	if err != nil {
		return errors.NewCLIErrorAdapter(false, nil).Report(stderr, errors.WrapError(err, errors.CategoryInternal, "failed to build command line").Build())
	}

	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(exitSignal)
			if !ok {
				panic(r)
			}
			code = int(sig)
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	cfg := config.Default()
	if kctx.Command() != "init" {
		cfg, err = config.LoadOrDefault(cli.Config)
		if err != nil {
			return errors.NewCLIErrorAdapter(cli.Verbose, newLogger(stderr, config.LoggingConfig{}, cli.Verbose)).Report(stderr, err)
		}
	}

	logger := newLogger(stderr, cfg.Logging, cli.Verbose)
	global := &Global{
		Logger: logger,
		Config: cfg,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(global, &cli)
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, ErrChangesPending):
		return errors.ExitChanges
	default:
		return errors.NewCLIErrorAdapter(cli.Verbose, logger).Report(stderr, err)
	}
}
