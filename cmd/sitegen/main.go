package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/cmd/sitegen/commands"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitegen"),
		kong.Description("A small static site generator with a watching development server."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	if err != nil {
		// HandleError prints, logs where warranted, and exits non-zero.
		errors.NewCLIErrorAdapter(cli.Verbose(), slog.Default()).HandleError(err)
	}
}
