package training

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 500 * time.Millisecond

// Watch retrains every time the dataset file is created or written, until
// ctx is done. Bursts of events within watchDebounce trigger a single run.
// onResult, if set, sees every run's outcome.
func (t *Trainer) Watch(ctx context.Context, onResult func(*Summary, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	datasetPath := filepath.Clean(t.cfg.DatasetPath())
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(datasetPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(datasetPath), err)
	}
	t.logger.Info("watching dataset", zap.String("path", datasetPath))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != datasetPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("dataset watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			summary, err := t.Run(ctx)
			if err != nil {
				t.logger.Error("retraining failed", zap.Error(err))
			} else {
				t.logger.Info("retrained",
					zap.Float64("train_accuracy", summary.TrainAccuracy),
					zap.Float64("train_auc", summary.TrainAUC))
			}
			if onResult != nil {
				onResult(summary, err)
			}
		}
	}
}
