// Package db stores training runs in SQLite: parameters, metrics, copied
// artifacts and a flat training log.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const trackingDBName = "tracking.db"

// Run statuses.
const (
	RunRunning  = "RUNNING"
	RunFinished = "FINISHED"
	RunFailed   = "FAILED"
)

const schema = `
    CREATE TABLE IF NOT EXISTS experiments (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        created_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS runs (
        run_id TEXT PRIMARY KEY,
        experiment_id INTEGER NOT NULL,
        run_name TEXT NOT NULL,
        status TEXT NOT NULL,
        start_time DATETIME NOT NULL,
        end_time DATETIME
    );
    CREATE TABLE IF NOT EXISTS params (
        run_id TEXT NOT NULL,
        key TEXT NOT NULL,
        value TEXT NOT NULL,
        UNIQUE(run_id, key)
    );
    CREATE TABLE IF NOT EXISTS metrics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        key TEXT NOT NULL,
        value REAL NOT NULL,
        timestamp DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS artifacts (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        path TEXT NOT NULL,
        UNIQUE(run_id, path)
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT,
        model_name VARCHAR(50),
        accuracy REAL,
        auc REAL,
        trained_at DATETIME,
        data_points INTEGER
    );
    `

// Store is a tracking store rooted at a directory holding the SQLite file
// and copied artifacts.
type Store struct {
	db   *sql.DB
	root string
}

// ParseTrackingURI maps a tracking URI to its root directory. Accepted forms
// are "file:<dir>", "file://<dir>" and a bare directory path.
func ParseTrackingURI(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return "", errors.New("tracking uri is empty")
	case strings.HasPrefix(uri, "file://"):
		uri = strings.TrimPrefix(uri, "file://")
	case strings.HasPrefix(uri, "file:"):
		uri = strings.TrimPrefix(uri, "file:")
	case strings.Contains(uri, "://"):
		return "", fmt.Errorf("unsupported tracking uri %q", uri)
	}
	if uri == "" {
		return "", errors.New("tracking uri has no path")
	}
	return filepath.Clean(uri), nil
}

func Open(uri string) (*Store, error) {
	root, err := ParseTrackingURI(uri)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	database, err := sql.Open("sqlite3", filepath.Join(root, trackingDBName)+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open tracking database: %w", err)
	}
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables failed: %w", err)
	}
	return &Store{db: database, root: root}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Root() string {
	return s.root
}

type Run struct {
	ID           string
	ExperimentID int64
	Name         string
	store        *Store
}

// StartRun creates the experiment on first use and opens a RUNNING run in it.
func (s *Store) StartRun(ctx context.Context, experiment, runName string) (*Run, error) {
	if experiment == "" {
		return nil, errors.New("experiment name required")
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO experiments (name, created_at) VALUES (?, ?)`, experiment, now); err != nil {
		return nil, err
	}
	var experimentID int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM experiments WHERE name = ?`, experiment).Scan(&experimentID); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           strings.ReplaceAll(uuid.NewString(), "-", ""),
		ExperimentID: experimentID,
		Name:         runName,
		store:        s,
	}
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO runs (run_id, experiment_id, run_name, status, start_time)
        VALUES (?, ?, ?, ?, ?)`,
		run.ID, experimentID, runName, RunRunning, now); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *Run) LogParam(ctx context.Context, key, value string) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO params (run_id, key, value) VALUES (?, ?, ?)`, r.ID, key, value)
	return err
}

func (r *Run) LogMetric(ctx context.Context, key string, value float64) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO metrics (run_id, key, value, timestamp) VALUES (?, ?, ?, ?)`,
		r.ID, key, value, time.Now().UTC())
	return err
}

// ArtifactDir is where artifacts of this run are copied to.
func (r *Run) ArtifactDir() string {
	return filepath.Join(r.store.root, fmt.Sprint(r.ExperimentID), r.ID, "artifacts")
}

// LogArtifact copies localPath into the run's artifact directory under
// artifactPath and records it.
func (r *Run) LogArtifact(ctx context.Context, localPath, artifactPath string) error {
	dir := filepath.Join(r.ArtifactDir(), artifactPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := copyFile(localPath, filepath.Join(dir, filepath.Base(localPath))); err != nil {
		return fmt.Errorf("copy artifact %s: %w", localPath, err)
	}
	stored := filepath.ToSlash(filepath.Join(artifactPath, filepath.Base(localPath)))
	_, err := r.store.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO artifacts (run_id, path) VALUES (?, ?)`, r.ID, stored)
	return err
}

// End closes the run with status.
func (r *Run) End(ctx context.Context, status string) error {
	_, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, end_time = ? WHERE run_id = ?`, status, time.Now().UTC(), r.ID)
	return err
}

type RunInfo struct {
	ID         string             `json:"run_id"`
	Experiment string             `json:"experiment"`
	Name       string             `json:"run_name"`
	Status     string             `json:"status"`
	StartTime  time.Time          `json:"start_time"`
	EndTime    *time.Time         `json:"end_time,omitempty"`
	Params     map[string]string  `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
	Artifacts  []string           `json:"artifacts"`
}

// GetRun loads a run with its params, latest metric values and artifacts.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	info := &RunInfo{
		Params:    make(map[string]string),
		Metrics:   make(map[string]float64),
		Artifacts: make([]string, 0),
	}
	var end sql.NullTime
	err := s.db.QueryRowContext(ctx, `
        SELECT r.run_id, e.name, r.run_name, r.status, r.start_time, r.end_time
        FROM runs r
        JOIN experiments e ON e.id = r.experiment_id
        WHERE r.run_id = ?`, runID).
		Scan(&info.ID, &info.Experiment, &info.Name, &info.Status, &info.StartTime, &end)
	if err != nil {
		return nil, err
	}
	if end.Valid {
		info.EndTime = &end.Time
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM params WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, err
		}
		info.Params[key] = value
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT key, value FROM metrics WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, err
		}
		info.Metrics[key] = value
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT path FROM artifacts WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		info.Artifacts = append(info.Artifacts, path)
	}
	return info, rows.Err()
}

type TrainingLog struct {
	RunID      string    `json:"run_id"`
	ModelName  string    `json:"model_name"`
	Accuracy   float64   `json:"accuracy"`
	AUC        float64   `json:"auc"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
}

func (s *Store) SaveTrainingLog(ctx context.Context, log TrainingLog) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO training_log (run_id, model_name, accuracy, auc, trained_at, data_points)
        VALUES (?, ?, ?, ?, ?, ?)`,
		log.RunID, log.ModelName, log.Accuracy, log.AUC, log.TrainedAt, log.DataPoints)
	return err
}

func (s *Store) LoadTrainingLog(ctx context.Context) ([]TrainingLog, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT run_id, model_name, accuracy, auc, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC, id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.RunID, &log.ModelName, &log.Accuracy, &log.AUC, &log.TrainedAt, &log.DataPoints); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
