package commands

import (
	"context"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/mdredirect/internal/metrics"
	"git.home.luguber.info/inful/mdredirect/internal/server/httpserver"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `short:"a" help:"Listen address (overrides server.addr)"`
}

func (s *ServeCmd) Run(ctx context.Context, g *Global) error {
	cfg := g.Config.Server
	opts := httpserver.Options{
		Addr:            cfg.Addr,
		MaxBody:         cfg.MaxBody,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          g.Logger,
	}
	if s.Addr != "" {
		opts.Addr = s.Addr
	}

	var recorder metrics.Recorder
	if cfg.MetricsEnabled() {
		reg := prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		pr := metrics.NewPrometheusRecorder(reg)
		recorder = pr
		opts.Gatherer = reg
		opts.Recorder = pr
	}

	processor, err := g.newProcessor(recorder)
	if err != nil {
		return err
	}
	server, err := httpserver.New(processor, opts)
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx)
}
