package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/williamdemeo/docpages/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Maximum number of runs to list" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.History.Disabled {
		return fmt.Errorf("publish history is disabled in configuration")
	}
	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		fmt.Println("No publish runs recorded yet")
		return nil
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	runs, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return fmt.Errorf("list publish runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No publish runs recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTARGET\tBRANCH\tOUTCOME\tCOMMIT\tFILES\tDURATION")
	for _, run := range runs {
		commit := run.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Fprintf(w, "%s\t%s/%s\t%s\t%s\t%s\t%d\t%s\n",
			run.StartedAt.Format(time.RFC3339),
			run.Account, run.Repo,
			run.Branch,
			run.Outcome,
			commit,
			run.Files,
			run.Duration.Round(time.Millisecond))
	}
	return w.Flush()
}
