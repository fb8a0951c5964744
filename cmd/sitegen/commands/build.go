package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/publish"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output     string `short:"o" help:"Output directory (overrides content.destination)" type:"path"`
	Report     bool   `help:"Write build-report.json into the output directory"`
	GitLastmod bool   `name:"git-lastmod" help:"Fill missing lastmod metadata from git history"`
	Metrics    string `name:"metrics-textfile" help:"Write Prometheus metrics to this file after the build" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, logger, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.Report {
		cfg.Build.Report = true
	}
	if b.GitLastmod {
		cfg.Build.GitLastmod = true
	}
	if b.Metrics != "" {
		cfg.Metrics.Textfile = b.Metrics
	}

	opts := []publish.Option{publish.WithDestination(b.Output), publish.WithLogger(logger)}
	var recorder *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, publish.WithRecorder(recorder))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := publish.New(cfg, opts...)
	report, buildErr := pub.Build(ctx)

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
	if buildErr != nil {
		return buildErr
	}

	_, _ = fmt.Fprintf(out(g), "Built %s: %s\n", pub.Destination(), report.Summary())
	return nil
}
