package app

import (
	"os"
	"path/filepath"
	"testing"

	"plugbackup/internal/engine"
	"plugbackup/internal/fsops"
)

func TestRestoreFromSidecar_UsesOrigAbs(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "vault", "file.txt.v20240307-150405")
	sidecar := engine.SidecarPath(payload)
	origAbs := filepath.Join(dir, "source", "file.txt")

	if err := os.MkdirAll(filepath.Dir(payload), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(payload, []byte("restored content"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	meta := engine.Metadata{
		Kind:    engine.KindVersion,
		OrigAbs: origAbs,
		Payload: payload,
	}
	fs := fsops.NewOSFileSystem()
	if err := engine.WriteSidecar(fs, sidecar, meta); err != nil {
		t.Fatalf("WriteSidecar() error = %v", err)
	}

	if err := RestoreFromSidecar(sidecar, ""); err != nil {
		t.Fatalf("RestoreFromSidecar() error = %v", err)
	}

	got, err := os.ReadFile(origAbs)
	if err != nil {
		t.Fatalf("ReadFile(origAbs) error = %v", err)
	}
	if string(got) != "restored content" {
		t.Errorf("restored content = %q, want %q", got, "restored content")
	}
}

func TestRestoreFromSidecar_TargetOverride(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "vault", "file.txt.v20240307-150405")
	sidecar := engine.SidecarPath(payload)
	override := filepath.Join(dir, "elsewhere", "restored.txt")

	if err := os.MkdirAll(filepath.Dir(payload), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(payload, []byte("override content"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	meta := engine.Metadata{
		Kind:    engine.KindVersion,
		OrigAbs: filepath.Join(dir, "source", "file.txt"),
		Payload: payload,
	}
	fs := fsops.NewOSFileSystem()
	if err := engine.WriteSidecar(fs, sidecar, meta); err != nil {
		t.Fatalf("WriteSidecar() error = %v", err)
	}

	if err := RestoreFromSidecar(sidecar, override); err != nil {
		t.Fatalf("RestoreFromSidecar() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "source", "file.txt")); !os.IsNotExist(err) {
		t.Error("RestoreFromSidecar() wrote to OrigAbs despite an override target")
	}

	got, err := os.ReadFile(override)
	if err != nil {
		t.Fatalf("ReadFile(override) error = %v", err)
	}
	if string(got) != "override content" {
		t.Errorf("restored content = %q, want %q", got, "override content")
	}
}

func TestRestoreFromSidecar_MissingSidecar(t *testing.T) {
	dir := t.TempDir()
	if err := RestoreFromSidecar(filepath.Join(dir, "missing.json"), ""); err == nil {
		t.Fatal("RestoreFromSidecar() error = nil, want error for a missing sidecar")
	}
}
