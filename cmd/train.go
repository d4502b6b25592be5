package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"protpred/db"
	"protpred/ml"
	"protpred/training"
)

var watchDataset bool

// trainCmd fits the model on the dataset and records the run.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the logistic regression model on the labelled dataset",
	Long: `Train reads <dataset dir>/train.csv (columns sequence,label), fits the model,
writes the model artifact, run_summary.json and a hydrophobicity histogram,
and records the run in the tracking store.`,
	Example: "  DATASET_DIR=./data protpred train\n  protpred train --watch",
	Args:    cobra.NoArgs,
	RunE:    runTrain,
}

func init() {
	trainCmd.Flags().BoolVarP(&watchDataset, "watch", "w", false, "retrain whenever the dataset file changes")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trainer := training.New(cfg, store, logger)
	summary, err := trainer.Run(ctx)
	if errors.Is(err, ml.ErrDatasetNotFound) {
		logger.Fatal("dataset not found", zap.String("path", cfg.DatasetPath()), zap.Error(err))
	}
	if err != nil {
		return err
	}
	if err := printSummary(cmd.OutOrStdout(), summary); err != nil {
		return err
	}

	if !watchDataset {
		return nil
	}
	return trainer.Watch(ctx, func(summary *training.Summary, err error) {
		if err != nil {
			logger.Error("retraining failed", zap.Error(err))
			return
		}
		if err := printSummary(cmd.OutOrStdout(), summary); err != nil {
			logger.Error("failed to print summary", zap.Error(err))
		}
	})
}

func printSummary(w io.Writer, summary *training.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
