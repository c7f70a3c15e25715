// Package app wires internal/engine, internal/fsops and internal/config
// together into something the CLI can call: a structured logger, a
// terminal progress readout, and a thin per-job event sink. It is
// intentionally not a reimplementation of a full backup controller — no
// CPU-based smart pause, no persisted user preferences — just enough
// plumbing to run the engine from a command line.
package app

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"plugbackup/internal/config"
	"plugbackup/internal/engine"
	"plugbackup/internal/fsops"
)

// Runner drives one or more BackupWorker runs for the jobs in a Config,
// reporting progress to both the structured log and the terminal.
type Runner struct {
	cfg     *config.Config
	logger  *slogAdapter
	logFile *os.File
	logDir  string
	runID   string
}

// NewRunner builds a Runner from cfg, opening the shared log file for the
// run. The caller must call Close when done.
func NewRunner(cfg *config.Config) (*Runner, error) {
	runID := uuid.New().String()

	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &Runner{
		cfg:     cfg,
		logger:  &slogAdapter{l: logger},
		logFile: logFile,
		logDir:  cfg.LogDir,
		runID:   runID,
	}, nil
}

// Close releases the run's log file.
func (r *Runner) Close() error {
	if r.logFile == nil {
		return nil
	}
	return r.logFile.Close()
}

// JobResult carries one job's outcome back to the caller of RunAll.
type JobResult struct {
	Name string
	OK   bool
	Err  error
}

// optionsForJob translates a config.Job into validated engine.Options.
func optionsForJob(job config.Job) (*engine.Options, error) {
	ignore := append([]string{}, job.IgnoreGlobs...)
	if job.IgnoreFile != "" {
		fromFile, err := fsops.ParseIgnoreFile(job.IgnoreFile)
		if err != nil {
			return nil, fmt.Errorf("reading ignore file for job %q: %w", job.Name, err)
		}
		ignore = append(ignore, fromFile...)
	}

	opts := &engine.Options{
		Source:            job.Source,
		Destination:       job.Destination,
		VerifyAfterWrite:  job.VerifyAfterWrite,
		MaxRetries:        job.MaxRetries,
		IgnoreGlobs:       ignore,
		FileWhitelist:     job.FileWhitelist,
		SpeedLimitBps:     job.SpeedLimitBps,
		KeepVersions:      job.KeepVersions,
		KeepDeleted:       job.KeepDeleted,
		RetentionDays:     job.RetentionDays,
		NamespaceOverride: job.NamespaceOverride,
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("job %q: %w", job.Name, err)
	}
	return opts, nil
}

// RunJob runs a single job to completion on the calling goroutine and
// returns whether it finished successfully. Its log lines go to the job's
// own file (see newJobLogger) in addition to the run's shared log, since
// RunAll runs every job concurrently on its own goroutine and a shared file
// alone would interleave them.
func (r *Runner) RunJob(job config.Job) (bool, error) {
	opts, err := optionsForJob(job)
	if err != nil {
		return false, err
	}

	jobLog, jobLogFile, err := newJobLogger(r.logDir, r.runID, job.Name, io.MultiWriter(r.logFile, os.Stderr))
	if err != nil {
		return false, fmt.Errorf("creating job logger: %w", err)
	}
	defer jobLogFile.Close()
	logger := &slogAdapter{l: jobLog}

	fs := fsops.NewOSFileSystem()
	bar := newProgressBar(job.Name, os.Stdout)
	sink := &jobEventSink{job: job.Name, logger: logger, bar: bar}
	gate := engine.NewDeviceGate(fsops.NewVolumeChecker(), opts.Destination, sink)

	worker := engine.NewBackupWorker(opts, fs, gate, sink, engine.RealClock{}, logger)
	worker.Run()

	return sink.finishedOK, nil
}

// RunAll runs every job in the config concurrently, one goroutine per job,
// and waits for all of them to finish.
func (r *Runner) RunAll() ([]JobResult, error) {
	results := make([]JobResult, len(r.cfg.Jobs))
	var wg sync.WaitGroup

	for i, job := range r.cfg.Jobs {
		wg.Add(1)
		go func(i int, job config.Job) {
			defer wg.Done()
			ok, err := r.RunJob(job)
			results[i] = JobResult{Name: job.Name, OK: ok, Err: err}
		}(i, job)
	}

	wg.Wait()

	var firstErr error
	for _, res := range results {
		if res.Err != nil && firstErr == nil {
			firstErr = res.Err
		}
	}
	return results, firstErr
}

// jobEventSink fans a single job's EventSink calls out to the structured
// logger and a terminal progress bar, and records the final outcome.
type jobEventSink struct {
	job    string
	logger *slogAdapter
	bar    *progressBar

	lastDone  int64
	lastTotal int64
	lastBps   float64

	finishedOK      bool
	finishedSummary string
}

func (s *jobEventSink) ProgressUpdated(done, total int64) {
	s.lastDone, s.lastTotal = done, total
}

func (s *jobEventSink) SpeedUpdated(bytesPerSec float64) { s.lastBps = bytesPerSec }

func (s *jobEventSink) ETAUpdated(secondsLeft int64) {
	s.bar.Update(s.lastDone, s.lastTotal, s.lastBps, secondsLeft)
}

func (s *jobEventSink) StateChanged(text string) {
	s.logger.Info("state changed", "job", s.job, "state", text)
}

func (s *jobEventSink) Finished(ok bool, summary string) {
	s.finishedOK = ok
	s.finishedSummary = summary
	s.bar.Done(ok, summary)
	if ok {
		s.logger.Info("job finished", "job", s.job, "summary", summary)
	} else {
		s.logger.Error("job finished", "job", s.job, "summary", summary)
	}
}

func (s *jobEventSink) FileStarted(rel string, size int64) {
	s.logger.Debug("file started", "job", s.job, "rel", rel, "size", size)
}

func (s *jobEventSink) FileFinished(rel string, ok bool, errMsg string) {
	if ok {
		s.logger.Debug("file finished", "job", s.job, "rel", rel)
		return
	}
	s.logger.Warn("file failed", "job", s.job, "rel", rel, "error", errMsg)
}

func (s *jobEventSink) VersionCreated(rel, payloadPath, metaPath string) {
	s.logger.Debug("version created", "job", s.job, "rel", rel, "payload", payloadPath)
}

func (s *jobEventSink) DeletedStashed(rel, payloadPath, metaPath string) {
	s.logger.Info("deletion stashed", "job", s.job, "rel", rel, "payload", payloadPath)
}

func (s *jobEventSink) DeviceOffline(phaseHint string) {
	s.logger.Warn("destination device offline", "job", s.job, "phase", phaseHint)
}

func (s *jobEventSink) DeviceOnline() {
	s.logger.Info("destination device back online", "job", s.job)
}

var _ engine.EventSink = (*jobEventSink)(nil)
