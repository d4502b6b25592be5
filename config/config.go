// Package config holds the process-wide settings. A Config is built once at
// startup from an optional YAML file, environment overrides and defaults,
// validated, and then passed explicitly to every constructor.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Model     ModelConfig     `yaml:"model"`
	Predictor PredictorConfig `yaml:"predictor"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Training  TrainingConfig  `yaml:"training"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type ModelConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	// NTermWindow is the inference-time N-terminal window.
	NTermWindow int `yaml:"nterm_window"`
}

type PredictorConfig struct {
	CacheSize int `yaml:"cache_size"`
}

type DatasetConfig struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

type TrainingConfig struct {
	C            float64 `yaml:"c"`
	MaxIter      int     `yaml:"max_iter"`
	NTermWindow  int     `yaml:"nterm_window"`
	ArtifactsDir string  `yaml:"artifacts_dir"`
	HistBins     int     `yaml:"hist_bins"`
}

type TrackingConfig struct {
	URI        string `yaml:"uri"`
	Experiment string `yaml:"experiment"`
	RunName    string `yaml:"run_name"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8080,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Model: ModelConfig{
			Type:        "logistic_regression",
			Path:        filepath.Join("artifacts", "models", "latest", "model.json"),
			NTermWindow: 20,
		},
		Predictor: PredictorConfig{CacheSize: 1024},
		Dataset:   DatasetConfig{Dir: ".", File: "train.csv"},
		Training: TrainingConfig{
			C:            1.0,
			MaxIter:      100,
			NTermWindow:  10,
			ArtifactsDir: "artifacts",
			HistBins:     15,
		},
		Tracking: TrackingConfig{
			URI:        "file:./mlruns",
			Experiment: "Protein Property Predictor",
			RunName:    "Training_Run",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path (skipped when empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from the environment. DATASET_DIR and
// MLFLOW_TRACKING_URI keep the names the training platform exports.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("DATASET_DIR")); v != "" {
		c.Dataset.Dir = v
	}
	if v := strings.TrimSpace(getenv("MLFLOW_TRACKING_URI")); v != "" {
		c.Tracking.URI = v
	}
	if v := getenv("PROTPRED_MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := getenv("PROTPRED_ARTIFACTS_DIR"); v != "" {
		c.Training.ArtifactsDir = v
	}
	if v := getenv("PROTPRED_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("PROTPRED_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROTPRED_HTTP_PORT: %w", err)
		}
		c.HTTP.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	if c.Model.NTermWindow <= 0 {
		errs = append(errs, errors.New("model.nterm_window must be positive"))
	}
	if c.Predictor.CacheSize < 0 {
		errs = append(errs, errors.New("predictor.cache_size must not be negative"))
	}
	if c.Dataset.File == "" {
		errs = append(errs, errors.New("dataset.file is required"))
	}
	if c.Training.C <= 0 {
		errs = append(errs, errors.New("training.c must be positive"))
	}
	if c.Training.NTermWindow <= 0 {
		errs = append(errs, errors.New("training.nterm_window must be positive"))
	}
	if c.Training.HistBins <= 0 {
		errs = append(errs, errors.New("training.hist_bins must be positive"))
	}
	if c.Tracking.URI == "" {
		errs = append(errs, errors.New("tracking.uri is required"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	return errors.Join(errs...)
}

// DatasetPath resolves the training CSV inside the dataset directory.
func (c *Config) DatasetPath() string {
	if filepath.IsAbs(c.Dataset.File) {
		return c.Dataset.File
	}
	return filepath.Join(c.Dataset.Dir, c.Dataset.File)
}
