package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkrelease/mkrelease/internal/config"
	"github.com/mkrelease/mkrelease/internal/logfields"
	"github.com/mkrelease/mkrelease/internal/pipeline"
	"github.com/mkrelease/mkrelease/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Quiet time.Duration `help:"Settle window for coalescing change bursts" default:"500ms"`
	Every time.Duration `help:"Additionally rebuild on a fixed interval (0 disables)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	sources := append(cfg.ResolvePaths(cfg.Readme.Sources), cfg.ResolvePath(cfg.Readme.Template))

	trigger := func(ctx context.Context) error {
		return runStagesWith(ctx, cfg, pipeline.StageReadme, pipeline.StageConvert)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial generation so watchers start from a fresh document.
	if err := trigger(ctx); err != nil {
		slog.Warn("Initial generation failed", logfields.Error(err))
	}

	slog.Info("Watching for changes", slog.Int("sources", len(sources)))
	return watch.New(sources, trigger, watch.Options{
		QuietWindow: w.Quiet,
		Interval:    w.Every,
	}).Run(ctx)
}
