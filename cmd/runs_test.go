package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protpred/db"
)

func newTrackedRun(t *testing.T) (*db.Store, string) {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open("file:" + t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	run, err := store.StartRun(ctx, "Protein Property Predictor", "Training_Run")
	require.NoError(t, err)
	require.NoError(t, run.LogParam(ctx, "solver", "liblinear"))
	require.NoError(t, run.LogMetric(ctx, "train_auc", 1))
	require.NoError(t, run.End(ctx, db.RunFinished))
	require.NoError(t, store.SaveTrainingLog(ctx, db.TrainingLog{
		RunID:      run.ID,
		ModelName:  "logistic_regression",
		Accuracy:   0.875,
		AUC:        1,
		TrainedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		DataPoints: 8,
	}))
	return store, run.ID
}

func TestPrintHistory(t *testing.T) {
	store, runID := newTrackedRun(t)

	var out bytes.Buffer
	require.NoError(t, printHistory(context.Background(), &out, store))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "RUN ID"))
	assert.Contains(t, lines[1], runID)
	assert.Contains(t, lines[1], "0.875")
	assert.Contains(t, lines[1], "2024-05-01T12:00:00Z")
}

func TestPrintRun(t *testing.T) {
	store, runID := newTrackedRun(t)

	var out bytes.Buffer
	require.NoError(t, printRun(context.Background(), &out, store, runID))

	var run map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &run))
	assert.Equal(t, runID, run["run_id"])
	assert.Equal(t, db.RunFinished, run["status"])
	assert.Equal(t, "liblinear", run["params"].(map[string]interface{})["solver"])
}

func TestPrintRun_Missing(t *testing.T) {
	store, _ := newTrackedRun(t)

	err := printRun(context.Background(), &bytes.Buffer{}, store, "does-not-exist")
	assert.ErrorContains(t, err, "not found")
}
