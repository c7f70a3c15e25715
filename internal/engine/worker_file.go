package engine

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"
)

// processFile runs the full per-file protocol for rel: existence check,
// version-on-change, copy with device-flap retry, and optional
// write-verification with retry/backoff.
func (w *BackupWorker) processFile(rel string, rateLimiter *RateLimiter) {
	srcPath := filepath.Join(w.opts.Source, filepath.FromSlash(rel))
	info, err := w.fs.Stat(srcPath)
	if err != nil || info.IsDir() {
		return
	}

	w.sink.FileStarted(rel, info.Size())
	w.gate.WaitUntilReadyOrCancelled("prepare-copy", &w.cancel)
	if w.cancel.Load() {
		return
	}

	dstPath := w.layout.PayloadPath(rel)

	if identical, err := w.versionOnChange(rel, srcPath, dstPath); err != nil {
		w.sink.FileFinished(rel, false, err.Error())
		w.failed = true
		return
	} else if identical {
		w.advanceProgress(info.Size())
		w.sink.FileFinished(rel, true, "")
		return
	}
	if w.cancel.Load() {
		return
	}

	ok, errMsg := w.copyWithRetry(rel, srcPath, dstPath, info, rateLimiter)
	if !ok {
		if errMsg != "" {
			w.sink.FileFinished(rel, false, errMsg)
			w.failed = true
		}
		return
	}

	if w.opts.VerifyAfterWrite {
		ok, errMsg := w.verifyWithRetry(rel, srcPath, dstPath)
		if !ok {
			w.sink.FileFinished(rel, false, errMsg)
			w.failed = true
			return
		}
	}

	w.advanceProgress(info.Size())
	w.sink.FileFinished(rel, true, "")
}

// versionOnChange implements the version-before-overwrite step. It returns
// identical=true when the fast-equality path determines the files are
// already the same and no copy is needed. A non-nil error means version
// archiving failed and the copy must be refused.
func (w *BackupWorker) versionOnChange(rel, srcPath, dstPath string) (identical bool, err error) {
	if !w.opts.KeepVersions {
		return false, nil
	}
	if !w.fs.Exists(dstPath) {
		return false, nil
	}

	if w.filesLikelyIdentical(srcPath, dstPath) {
		return true, nil
	}

	return false, w.archiveVersion(rel, dstPath)
}

// filesLikelyIdentical implements the fast-equality check: size and mtime
// within tolerance, confirmed by a full hash comparison.
func (w *BackupWorker) filesLikelyIdentical(srcPath, dstPath string) bool {
	srcInfo, err := w.fs.Stat(srcPath)
	if err != nil {
		return false
	}
	dstInfo, err := w.fs.Stat(dstPath)
	if err != nil {
		return false
	}
	if srcInfo.Size() != dstInfo.Size() {
		return false
	}
	delta := srcInfo.ModTime().Sub(dstInfo.ModTime())
	if delta < 0 {
		delta = -delta
	}
	if delta > mtimeTolerance {
		return false
	}

	srcDigest, srcOK := HashFile(w.fs, srcPath)
	dstDigest, dstOK := HashFile(w.fs, dstPath)
	return digestsEqual(srcDigest, srcOK, dstDigest, dstOK)
}

// archiveVersion moves the existing destination payload into the vault and
// writes its metadata sidecar, retrying once across a single device flap.
func (w *BackupWorker) archiveVersion(rel, dstPath string) error {
	err := w.tryArchiveVersion(rel, dstPath)
	if err == nil {
		return nil
	}
	if !w.gate.IsReady() {
		w.gate.WaitUntilReadyOrCancelled("version-archive", &w.cancel)
		if w.cancel.Load() {
			return fmt.Errorf("version archive cancelled")
		}
		return w.tryArchiveVersion(rel, dstPath)
	}
	return err
}

func (w *BackupWorker) tryArchiveVersion(rel, dstPath string) error {
	if !w.gate.IsReady() {
		return fmt.Errorf("destination not ready")
	}

	ts := formatTimestamp(w.clock.Now())
	versionPath := w.layout.VersionPath(rel, ts)

	if err := w.fs.MkdirAll(filepath.Dir(versionPath)); err != nil {
		return fmt.Errorf("version archive failed: %w", err)
	}
	if err := moveFile(w.fs, dstPath, versionPath); err != nil {
		return fmt.Errorf("version archive failed: %w", err)
	}

	meta := NewMetadata(KindVersion, ts, w.opts, rel, versionPath)
	sidecar := SidecarPath(versionPath)
	if err := WriteSidecar(w.fs, sidecar, meta); err != nil {
		return fmt.Errorf("version archive failed: %w", err)
	}

	w.sink.VersionCreated(rel, versionPath, sidecar)
	return nil
}

// copyWithRetry runs the copy step in a retry loop: a failure while the
// device isn't ready is recoverable by waiting and retrying; a failure with
// a ready device is a real per-file failure.
func (w *BackupWorker) copyWithRetry(rel, srcPath, dstPath string, info fs.FileInfo, rateLimiter *RateLimiter) (ok bool, errMsg string) {
	for {
		if w.cancel.Load() {
			return false, ""
		}
		if !w.gate.IsReady() {
			w.gate.WaitUntilReadyOrCancelled("copy", &w.cancel)
			if w.cancel.Load() {
				return false, ""
			}
			continue
		}

		err := w.copier.Copy(srcPath, dstPath, CopyOptions{
			Cancel:      &w.cancel,
			Pause:       &w.pause,
			Gate:        w.gate,
			RateLimiter: rateLimiter,
			MirrorMTime: info.ModTime(),
			HasMTime:    true,
		})
		if err == nil {
			return true, ""
		}

		if w.cancel.Load() {
			return false, ""
		}
		if !w.gate.IsReady() {
			w.gate.WaitUntilReadyOrCancelled("copy", &w.cancel)
			if w.cancel.Load() {
				return false, ""
			}
			continue
		}

		w.logger.Warn("copy failed", "rel", rel, "error", err)
		return false, "copy failed"
	}
}

// verifyWithRetry hashes source and destination after a successful copy,
// retrying with exponential backoff (capped at 30s) up to MaxRetries times
// when they disagree, rehashing only the destination on each retry.
func (w *BackupWorker) verifyWithRetry(rel, srcPath, dstPath string) (ok bool, errMsg string) {
	srcDigest, srcOK := HashFile(w.fs, srcPath)

	backoff := verifyBackoffBase
	for attempt := 0; ; attempt++ {
		dstDigest, dstOK := HashFile(w.fs, dstPath)
		if digestsEqual(srcDigest, srcOK, dstDigest, dstOK) {
			return true, ""
		}

		if !w.gate.IsReady() {
			w.gate.WaitUntilReadyOrCancelled("verify", &w.cancel)
			if w.cancel.Load() {
				return false, ""
			}
			continue
		}

		if attempt >= w.opts.MaxRetries {
			return false, "verify failed"
		}

		time.Sleep(backoff)
		backoff *= 2
		if backoff > verifyBackoffCap {
			backoff = verifyBackoffCap
		}
	}
}

// moveFile renames src to dst, falling back to copy-then-delete when the
// rename fails (e.g. because they're not on a move-able path pair), mirroring
// the original "robust move" helper.
func moveFile(fs FileSystem, src, dst string) error {
	if fs.Exists(dst) {
		if err := fs.Remove(dst); err != nil {
			return err
		}
	}
	if err := fs.Rename(src, dst); err == nil {
		return nil
	}

	r, err := fs.Open(src)
	if err != nil {
		return err
	}
	w, err := fs.Create(dst)
	if err != nil {
		r.Close()
		return err
	}
	_, copyErr := io.Copy(w, r)
	closeErr := w.Close()
	r.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return closeErr
	}
	return fs.Remove(src)
}
