package engine

import (
	"io/fs"
	"path/filepath"
)

// handleDeletions walks the destination's namespace subtree (ignoring the
// vault metadata directory) and tombstones every regular file whose
// relative path is no longer present in the current source scan.
func (w *BackupWorker) handleDeletions(currentRels map[string]bool) {
	root := w.layout.NamespaceRoot()
	if !w.fs.Exists(root) {
		return
	}

	var orphans []string
	err := w.fs.WalkFiles(root, func(path string, info fs.FileInfo) error {
		if w.cancel.Load() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = CleanRel(rel)
		if rel == "" {
			return nil
		}
		if !currentRels[rel] {
			orphans = append(orphans, rel)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("deletion scan encountered an error", "error", err)
	}

	for _, rel := range orphans {
		if w.cancel.Load() {
			return
		}
		w.gate.WaitUntilReadyOrCancelled("handle-deletions", &w.cancel)
		if w.cancel.Load() {
			return
		}

		dstPath := w.layout.PayloadPath(rel)
		ts := formatTimestamp(w.clock.Now())
		deletedPath := w.layout.DeletedPath(rel, ts)

		if err := w.fs.MkdirAll(filepath.Dir(deletedPath)); err != nil {
			w.logger.Warn("tombstone failed", "rel", rel, "error", err)
			continue
		}
		if err := moveFile(w.fs, dstPath, deletedPath); err != nil {
			w.logger.Warn("tombstone failed", "rel", rel, "error", err)
			continue
		}

		meta := NewMetadata(KindDeleted, ts, w.opts, rel, deletedPath)
		sidecar := SidecarPath(deletedPath)
		if err := WriteSidecar(w.fs, sidecar, meta); err != nil {
			w.logger.Warn("writing tombstone sidecar failed", "rel", rel, "error", err)
			continue
		}

		w.sink.DeletedStashed(rel, deletedPath, sidecar)
	}
}
