package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mkrelease/mkrelease/cmd/mkrelease/commands"
	"github.com/mkrelease/mkrelease/internal/execx"
	"github.com/mkrelease/mkrelease/internal/logfields"
	"github.com/mkrelease/mkrelease/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("mkrelease"),
		kong.Description("Release pipeline driver: generate docs, build distributables, publish to a package index."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}); err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(execx.ExitCode(err))
	}
}
