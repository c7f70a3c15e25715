package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"plugbackup/internal/config"
)

// watchDebounce is how long Watch waits after the last observed filesystem
// event before triggering a run, so a burst of saves collapses into one.
const watchDebounce = 2 * time.Second

// Watch recursively watches job.Source and triggers a run of job through r
// on every debounced burst of changes, until stop is closed. It is an
// explicitly non-authoritative demo driver, not a reimplementation of the
// controller's watcher: no CPU throttling, no persisted debounce preference.
func (r *Runner) Watch(job config.Job, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, job.Source); err != nil {
		return err
	}

	r.logger.Info("watch started", "job", job.Name, "source", job.Source)

	var timer *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-stop:
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					watcher.Add(event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watch error", "job", job.Name, "error", err)

		case <-trigger:
			r.logger.Info("watch triggered run", "job", job.Name)
			if _, err := r.RunJob(job); err != nil {
				r.logger.Error("watch-triggered run failed", "job", job.Name, "error", err)
			}
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
