package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// plugbackupHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
type plugbackupHandler struct {
	w     io.Writer
	runID string
	attrs []slog.Attr
}

func (h *plugbackupHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *plugbackupHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.runID, r.Message)
	if err != nil {
		return err
	}

	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}

	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(h.w)
	return err
}

func (h *plugbackupHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &plugbackupHandler{
		w:     h.w,
		runID: h.runID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *plugbackupHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates the run-level structured logger, shared across every
// job in the run, writing to both logDir/plugbackup.log and stderr. It
// returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir string, runID string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "plugbackup.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return slog.New(&plugbackupHandler{w: io.MultiWriter(f, os.Stderr), runID: runID}), f, nil
}

// newJobLogger creates a logger scoped to a single job within the run.
// RunAll starts one goroutine per job, so a job's lines additionally go to
// their own file under logDir/jobs/<job>.log — letting a caller tail one
// job's activity in isolation without untangling it from the interleaved
// output of every other job running concurrently in the same run. Lines
// still reach the shared run-level log (via extra) and stderr as well. It
// returns the slog.Logger, the job's own log file (for cleanup), and any
// error.
func newJobLogger(logDir, runID, job string, extra io.Writer) (*slog.Logger, *os.File, error) {
	jobsDir := filepath.Join(logDir, "jobs")
	if err := os.MkdirAll(jobsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating per-job log directory: %w", err)
	}

	logPath := filepath.Join(jobsDir, job+".log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening job log file: %w", err)
	}

	w := io.MultiWriter(f, extra)
	handler := &plugbackupHandler{w: w, runID: runID, attrs: []slog.Attr{slog.String("job", job)}}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy engine.Logger.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
