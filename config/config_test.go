package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads defaults without a file", func(t *testing.T) {
		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.HTTP.Port)
		assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
		assert.Equal(t, "logistic_regression", cfg.Model.Type)
		assert.Equal(t, 20, cfg.Model.NTermWindow)
		assert.Equal(t, 10, cfg.Training.NTermWindow)
		assert.Equal(t, "file:./mlruns", cfg.Tracking.URI)
		assert.Equal(t, "Protein Property Predictor", cfg.Tracking.Experiment)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("reads yaml over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "http:\n  port: 9000\n  timeout: 5s\nmodel:\n  path: /srv/model.json\nlog:\n  format: console\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.HTTP.Port)
		assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
		assert.Equal(t, "/srv/model.json", cfg.Model.Path)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, 1024, cfg.Predictor.CacheSize)
	})

	t.Run("reads from environment variables", func(t *testing.T) {
		t.Setenv("DATASET_DIR", "/data/ppp")
		t.Setenv("MLFLOW_TRACKING_URI", "file:/tmp/runs")
		t.Setenv("PROTPRED_HTTP_PORT", "9090")
		t.Setenv("PROTPRED_LOG_LEVEL", "debug")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "/data/ppp", cfg.Dataset.Dir)
		assert.Equal(t, filepath.Join("/data/ppp", "train.csv"), cfg.DatasetPath())
		assert.Equal(t, "file:/tmp/runs", cfg.Tracking.URI)
		assert.Equal(t, 9090, cfg.HTTP.Port)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad port in environment", func(t *testing.T) {
		t.Setenv("PROTPRED_HTTP_PORT", "eighty")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Model.Path = ""
	cfg.HTTP.Port = 0
	cfg.Log.Level = "loud"
	cfg.Training.C = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.path is required")
	assert.Contains(t, err.Error(), "http.port")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "training.c")
}

func TestDatasetPathAbsolute(t *testing.T) {
	cfg := Default()
	cfg.Dataset.File = "/abs/train.csv"
	assert.Equal(t, "/abs/train.csv", cfg.DatasetPath())
}
