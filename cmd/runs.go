package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"protpred/db"
)

// runsCmd reads back what train recorded in the tracking store.
var runsCmd = &cobra.Command{
	Use:   "runs [run id]",
	Short: "List recorded training runs, or show one run in full",
	Example: "  protpred runs\n" +
		"  protpred runs 3f2b9c0d8e7a4c1b9a6d5e4f3a2b1c0d",
	Aliases: []string{"history"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := db.Open(cfg.Tracking.URI)
	if err != nil {
		return fmt.Errorf("open tracking store: %w", err)
	}
	defer store.Close()

	if len(args) == 1 {
		return printRun(cmd.Context(), cmd.OutOrStdout(), store, args[0])
	}
	return printHistory(cmd.Context(), cmd.OutOrStdout(), store)
}

func printHistory(ctx context.Context, w io.Writer, store *db.Store) error {
	logs, err := store.LoadTrainingLog(ctx)
	if err != nil {
		return fmt.Errorf("load training log: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tMODEL\tACCURACY\tAUC\tROWS\tTRAINED AT")
	for _, l := range logs {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%d\t%s\n",
			l.RunID, l.ModelName, l.Accuracy, l.AUC, l.DataPoints, l.TrainedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func printRun(ctx context.Context, w io.Writer, store *db.Store, runID string) error {
	run, err := store.GetRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
