// Package training fits the logistic model offline from a labelled CSV and
// records the run: metrics, model artifact, summary and a feature histogram.
package training

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"protpred/config"
	"protpred/db"
	"protpred/ml"
)

const (
	summaryFile   = "run_summary.json"
	histogramFile = "hydrophobicity_hist.png"
)

// Summary is written to run_summary.json at the end of a run.
type Summary struct {
	TrainAccuracy float64 `json:"train_accuracy"`
	TrainAUC      float64 `json:"train_auc"`
	ModelPath     string  `json:"model_path"`
	RunID         string  `json:"run_id,omitempty"`
	DataPoints    int     `json:"data_points"`
}

type Trainer struct {
	cfg    *config.Config
	store  *db.Store
	logger *zap.Logger
}

// New returns a Trainer. store may be nil, in which case nothing is tracked.
func New(cfg *config.Config, store *db.Store, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{cfg: cfg, store: store, logger: logger}
}

// Run performs one fit. A missing dataset returns an error wrapping
// ml.ErrDatasetNotFound before any model work happens.
func (t *Trainer) Run(ctx context.Context) (summary *Summary, err error) {
	var run *db.Run
	if t.store != nil {
		run, err = t.store.StartRun(ctx, t.cfg.Tracking.Experiment, t.cfg.Tracking.RunName)
		if err != nil {
			return nil, fmt.Errorf("start tracking run: %w", err)
		}
		t.logger.Info("tracking run started",
			zap.String("run_id", run.ID),
			zap.String("tracking_root", t.store.Root()))
		defer func() {
			status := db.RunFinished
			if err != nil {
				status = db.RunFailed
			}
			if endErr := run.End(context.WithoutCancel(ctx), status); endErr != nil {
				t.logger.Warn("failed to close tracking run", zap.Error(endErr))
			}
		}()
		params := map[string]string{
			"model_type":   "LogisticRegression",
			"solver":       "liblinear",
			"C":            strconv.FormatFloat(t.cfg.Training.C, 'g', -1, 64),
			"nterm_window": strconv.Itoa(t.cfg.Training.NTermWindow),
		}
		for key, value := range params {
			if err := run.LogParam(ctx, key, value); err != nil {
				return nil, err
			}
		}
	}

	datasetPath := t.cfg.DatasetPath()
	examples, err := ml.LoadDataset(datasetPath)
	if err != nil {
		return nil, err
	}
	t.logger.Info("dataset loaded", zap.String("path", datasetPath), zap.Int("rows", len(examples)))

	features, labels := ml.BuildTrainingSet(examples, ml.NewExtractor(t.cfg.Training.NTermWindow))
	model := ml.NewLogisticRegression()
	model.C = t.cfg.Training.C
	model.MaxIter = t.cfg.Training.MaxIter
	model.NTermWindow = t.cfg.Training.NTermWindow
	if err := model.Train(features, labels); err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accuracy, auc, err := ml.Evaluate(model, features, labels)
	if err != nil {
		return nil, fmt.Errorf("evaluate model: %w", err)
	}
	t.logger.Info("model trained",
		zap.Float64("train_accuracy", accuracy),
		zap.Float64("train_auc", auc),
		zap.Int("iterations", model.Iterations))

	if err := os.MkdirAll(t.cfg.Training.ArtifactsDir, 0o755); err != nil {
		return nil, err
	}
	plotPath := filepath.Join(t.cfg.Training.ArtifactsDir, histogramFile)
	hydrophobic := make([]float64, len(features))
	for i, vector := range features {
		hydrophobic[i] = vector[0]
	}
	if err := SaveHistogram(hydrophobic, t.cfg.Training.HistBins, plotPath); err != nil {
		return nil, fmt.Errorf("plot histogram: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(t.cfg.Model.Path), 0o755); err != nil {
		return nil, err
	}
	if err := model.Save(t.cfg.Model.Path); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	summary = &Summary{
		TrainAccuracy: accuracy,
		TrainAUC:      auc,
		ModelPath:     t.cfg.Model.Path,
		DataPoints:    len(examples),
	}
	if run != nil {
		summary.RunID = run.ID
	}
	summaryPath := filepath.Join(t.cfg.Training.ArtifactsDir, summaryFile)
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(summaryPath, payload, 0o644); err != nil {
		return nil, err
	}

	if run != nil {
		if err := t.track(ctx, run, summary, map[string]string{
			t.cfg.Model.Path: "model",
			summaryPath:      "summary",
			plotPath:         "plots",
		}); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func (t *Trainer) track(ctx context.Context, run *db.Run, summary *Summary, artifacts map[string]string) error {
	if err := run.LogMetric(ctx, "train_accuracy", summary.TrainAccuracy); err != nil {
		return err
	}
	if err := run.LogMetric(ctx, "train_auc", summary.TrainAUC); err != nil {
		return err
	}
	for local, artifactPath := range artifacts {
		if err := run.LogArtifact(ctx, local, artifactPath); err != nil {
			return err
		}
	}
	return t.store.SaveTrainingLog(ctx, db.TrainingLog{
		RunID:      run.ID,
		ModelName:  ml.ModelTypeLogisticRegression,
		Accuracy:   summary.TrainAccuracy,
		AUC:        summary.TrainAUC,
		TrainedAt:  time.Now().UTC(),
		DataPoints: summary.DataPoints,
	})
}
