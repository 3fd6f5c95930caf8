package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mkrelease/mkrelease/internal/config"
	"github.com/mkrelease/mkrelease/internal/execx"
	"github.com/mkrelease/mkrelease/internal/history"
	"github.com/mkrelease/mkrelease/internal/logfields"
	"github.com/mkrelease/mkrelease/internal/pipeline"
	"github.com/mkrelease/mkrelease/internal/stages"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mkrelease.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Clean   CleanCmd   `cmd:"" help:"Remove build artifacts and generated documents"`
	Readme  ReadmeCmd  `cmd:"" help:"Generate the Markdown document from the doc-data payload"`
	Convert ConvertCmd `cmd:"" help:"Convert the Markdown document to reStructuredText"`
	Build   BuildCmd   `cmd:"" help:"Build the sdist and wheel distributables"`
	Publish PublishCmd `cmd:"" help:"Build and upload the distributables to the package index"`
	Watch   WatchCmd   `cmd:"" help:"Watch source trees and regenerate documents on change"`
	Graph   GraphCmd   `cmd:"" help:"Show the resolved stage execution plan"`
	History HistoryCmd `cmd:"" help:"Show recent pipeline runs"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// runStages loads configuration, wires the stage registry and executes
// the requested stages through a locked, history-recording runner.
func runStages(ctx context.Context, configPath string, names ...pipeline.StageName) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return runStagesWith(ctx, cfg, names...)
}

func runStagesWith(ctx context.Context, cfg *config.Config, names ...pipeline.StageName) error {
	registry, err := stages.NewRegistry(cfg, execx.NewLocal())
	if err != nil {
		return err
	}

	options := []pipeline.RunnerOption{
		pipeline.WithLockFile(cfg.ResolvePath(cfg.LockFile)),
	}
	if !cfg.History.Disabled {
		store, err := history.Open(cfg.ResolvePath(cfg.History.Path))
		if err != nil {
			slog.Warn("Run history unavailable", logfields.Error(err))
		} else {
			defer store.Close()
			options = append(options, pipeline.WithHistory(store))
		}
	}

	_, err = pipeline.NewRunner(registry, options...).Execute(ctx, names...)
	return err
}
