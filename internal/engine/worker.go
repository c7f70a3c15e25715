package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// progressEmitInterval is the minimum gap between ProgressUpdated/SpeedUpdated/
// ETAUpdated emissions while copying.
const progressEmitInterval = 200 * time.Millisecond

// mtimeTolerance is the fast-equality mtime slack used to accommodate
// filesystem timestamp rounding. This constant is intentionally not exposed
// by Options.
const mtimeTolerance = 2 * time.Second

// verifyBackoffBase and verifyBackoffCap bound the exponential backoff
// between verify retries: 1s, 2s, 4s, ... capped at 30s.
const (
	verifyBackoffBase = 1 * time.Second
	verifyBackoffCap  = 30 * time.Second
)

// BackupWorker executes one full backup pass for one source/destination
// pair: scan, version, copy, verify, retry-on-flap, tombstone deletions, and
// reap aged vault entries, reporting progress via an EventSink.
type BackupWorker struct {
	opts   *Options
	fs     FileSystem
	gate   *DeviceGate
	sink   EventSink
	clock  Clock
	logger Logger

	layout VaultLayout
	copier *CopyPipeline

	cancel atomic.Bool
	pause  atomic.Bool

	totalBytes int64
	bytesDone  int64

	speed           *SpeedEstimator
	lastProgressAt  time.Time
	runStartedAt    time.Time

	failed bool
}

// NewBackupWorker builds a worker for one run. opts must already be valid
// per Options.Validate.
func NewBackupWorker(opts *Options, fs FileSystem, gate *DeviceGate, sink EventSink, clock Clock, logger Logger) *BackupWorker {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &BackupWorker{
		opts:   opts,
		fs:     fs,
		gate:   gate,
		sink:   sink,
		clock:  clock,
		logger: logger,
		layout: NewVaultLayout(opts.Destination, opts.Namespace()),
		copier: NewCopyPipeline(fs),
		speed:  NewSpeedEstimator(5000),
	}
}

// RequestPause toggles the pause flag. Idempotent; observed at the next
// suspension point.
func (w *BackupWorker) RequestPause(pause bool) {
	w.pause.Store(pause)
}

// RequestStop sets the single-shot cancel flag. Idempotent.
func (w *BackupWorker) RequestStop() {
	w.cancel.Store(true)
}

// Run executes one full backup pass. It is meant to be called on its own
// goroutine; the caller observes progress exclusively through the EventSink
// passed to NewBackupWorker.
func (w *BackupWorker) Run() {
	w.runStartedAt = w.clock.Now()
	w.sink.StateChanged("starting")

	w.gate.WaitUntilReadyOrCancelled("startup", &w.cancel)
	if w.cancel.Load() {
		w.sink.Finished(false, "cancelled")
		return
	}

	rels, err := w.scan()
	if err != nil {
		w.logger.Error("scan failed", "error", err)
		w.sink.Finished(false, fmt.Sprintf("scan failed: %v", err))
		return
	}

	w.totalBytes = w.totalSize(rels)
	w.sink.ProgressUpdated(0, w.totalBytes)

	rateLimiter := NewRateLimiter(w.opts.SpeedLimitBps)

	for _, rel := range rels {
		if w.cancel.Load() {
			w.sink.Finished(false, "cancelled")
			return
		}
		w.waitWhilePaused()
		if w.cancel.Load() {
			w.sink.Finished(false, "cancelled")
			return
		}

		w.processFile(rel, rateLimiter)
	}

	if w.opts.KeepDeleted {
		relSet := make(map[string]bool, len(rels))
		for _, r := range rels {
			relSet[r] = true
		}
		w.handleDeletions(relSet)
		if w.cancel.Load() {
			w.sink.Finished(false, "cancelled")
			return
		}
	}

	if w.opts.RetentionDays > 0 {
		w.sweepRetention()
	}

	w.sink.ProgressUpdated(w.totalBytes, w.totalBytes)
	ok := !w.failed
	summary := "ok"
	if !ok {
		summary = "completed with errors"
	}
	w.sink.Finished(ok, summary)
}

// waitWhilePaused busy-waits in short slices while paused, honoring
// cancellation throughout.
func (w *BackupWorker) waitWhilePaused() {
	for w.pause.Load() && !w.cancel.Load() {
		time.Sleep(pauseSlice)
	}
}

// advanceProgress accumulates done bytes, feeds the speed estimator, and
// throttles ProgressUpdated/SpeedUpdated/ETAUpdated to at most once per
// progressEmitInterval.
func (w *BackupWorker) advanceProgress(delta int64) {
	w.bytesDone += delta
	if w.bytesDone > w.totalBytes {
		w.bytesDone = w.totalBytes
	}

	elapsedMs := w.clock.Now().Sub(w.runStartedAt).Milliseconds()
	w.speed.Sample(elapsedMs, w.bytesDone)

	now := time.Now()
	if !w.lastProgressAt.IsZero() && now.Sub(w.lastProgressAt) < progressEmitInterval {
		return
	}
	w.lastProgressAt = now

	w.sink.ProgressUpdated(w.bytesDone, w.totalBytes)

	speed := w.speed.AverageBytesPerSec()
	w.sink.SpeedUpdated(speed)

	if speed <= 1 {
		w.sink.ETAUpdated(-1)
		return
	}
	remain := w.totalBytes - w.bytesDone
	w.sink.ETAUpdated(int64(float64(remain) / speed))
}
