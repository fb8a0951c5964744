package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/cmd/sitegen/commands"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitegen"),
		kong.Description("Build a static site from a content directory."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	global := &commands.Global{Out: os.Stdout}
	ctx.FatalIfErrorf(ctx.Run(global, &cli))
}
