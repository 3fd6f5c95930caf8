package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrelease/mkrelease/internal/config"
	"github.com/mkrelease/mkrelease/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `help:"Maximum number of runs to show" default:"20"`
	RunID string `name:"run" help:"Show per-stage detail for a single run ID"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Disabled {
		return fmt.Errorf("run history is disabled in configuration")
	}

	store, err := history.Open(cfg.ResolvePath(cfg.History.Path))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if h.RunID != "" {
		return h.showStages(ctx, store)
	}

	runs, err := store.ListRuns(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			string(run.Outcome),
			run.Error,
		})
	}
	fmt.Println(renderTable([]string{"Run", "Started", "Duration", "Outcome", "Error"}, rows, 2))
	return nil
}

func (h *HistoryCmd) showStages(ctx context.Context, store *history.Store) error {
	records, err := store.StagesFor(ctx, h.RunID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no stages recorded for run %s", h.RunID)
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			fmt.Sprintf("%d", rec.Seq),
			rec.Stage,
			string(rec.Outcome),
			rec.Duration.Round(time.Millisecond).String(),
			rec.Error,
		})
	}
	fmt.Println(renderTable([]string{"#", "Stage", "Outcome", "Duration", "Error"}, rows, 0, 3))
	return nil
}
