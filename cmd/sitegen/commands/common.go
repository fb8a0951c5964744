// Package commands implements the sitegen command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

// Global is passed to every subcommand.
type Global struct {
	// Out receives user-facing output.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitegen.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site into the destination directory"`
	List  ListCmd  `cmd:"" help:"Print the section tree, page URLs and categories without rendering"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; set up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig loads the configuration and installs the logger it describes.
func loadConfig(root *CLI) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func out(g *Global) io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
