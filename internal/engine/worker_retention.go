package engine

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// sweepRetention walks the versions and deleted vault subtrees and removes
// any payload (plus its sidecar) older than RetentionDays. Files whose
// timestamp suffix doesn't parse are left untouched, per spec's "unknown,
// keep" rule — they may have been created by a different version of the
// engine.
func (w *BackupWorker) sweepRetention() {
	cutoff := w.clock.Now().UTC().AddDate(0, 0, -w.opts.RetentionDays)

	w.sweepRoot(w.layout.VersionsRoot(), ".v", cutoff)
	if w.cancel.Load() {
		return
	}
	w.sweepRoot(w.layout.DeletedRoot(), ".d", cutoff)
}

func (w *BackupWorker) sweepRoot(root, suffixTag string, cutoff time.Time) {
	if !w.fs.Exists(root) {
		return
	}

	var payloads []string
	err := w.fs.WalkFiles(root, func(path string, info fs.FileInfo) error {
		if strings.HasSuffix(path, ".json") {
			return nil
		}
		payloads = append(payloads, path)
		return nil
	})
	if err != nil {
		w.logger.Warn("retention walk encountered an error", "root", root, "error", err)
	}

	for _, payload := range payloads {
		if w.cancel.Load() {
			return
		}
		ts, ok := extractTimestamp(payload, suffixTag)
		if !ok {
			continue
		}
		parsed, ok := parseTimestamp(ts)
		if !ok {
			continue // unparseable: unknown, keep
		}
		if parsed.Before(cutoff) {
			w.fs.Remove(payload)
			w.fs.Remove(SidecarPath(payload))
		}
	}
}

// extractTimestamp pulls the <ts> out of a payload name ending in
// "<suffixTag><ts>" (".v<ts>" or ".d<ts>"), using the last occurrence of the
// tag, per spec's documented heuristic.
func extractTimestamp(path, suffixTag string) (string, bool) {
	name := filepath.Base(path)
	idx := strings.LastIndex(name, suffixTag)
	if idx < 0 {
		return "", false
	}
	ts := name[idx+len(suffixTag):]
	if len(ts) != len(tsFormat) {
		return "", false
	}
	return ts, true
}
