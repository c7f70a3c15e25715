package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"plugbackup/internal/engine"
	"plugbackup/internal/fsops"
)

// RestoreFromSidecar reads the JSON sidecar at sidecarPath and copies the
// adjacent payload file back over its original location (Metadata.OrigAbs),
// or over targetOverride if given. The payload's modification time is
// mirrored onto the restored file.
//
// This is supplemental: the engine never calls it, and it carries none of
// the controller's conflict-resolution responsibility — it is a direct
// overwrite, with no prompt and no backup of what it replaces.
func RestoreFromSidecar(sidecarPath, targetOverride string) error {
	fs := fsops.NewOSFileSystem()

	meta, err := engine.ReadSidecar(fs, sidecarPath)
	if err != nil {
		return fmt.Errorf("reading sidecar: %w", err)
	}

	target := meta.OrigAbs
	if targetOverride != "" {
		target = targetOverride
	}

	if err := fs.MkdirAll(filepath.Dir(target)); err != nil {
		return fmt.Errorf("creating restore target directory: %w", err)
	}

	if err := copyPayload(meta.Payload, target); err != nil {
		return fmt.Errorf("restoring %s from %s: %w", target, meta.Payload, err)
	}

	if info, err := os.Stat(meta.Payload); err == nil {
		_ = os.Chtimes(target, info.ModTime(), info.ModTime())
	}

	return nil
}

func copyPayload(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
