package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeClock returns a fixed, advanceable time for deterministic timestamps.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestWorker(t *testing.T, opts *Options, sink EventSink, clock Clock) *BackupWorker {
	t.Helper()
	checker := &fakeVolumeChecker{results: []fakeCheckResult{{ready: true, fp: "disk-a"}}}
	gate := NewDeviceGate(checker, opts.Destination, sink)
	return NewBackupWorker(opts, testFS{}, gate, sink, clock, NewNopLogger())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestBackupWorker_Run_CleanFirstPass(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	writeFile(t, filepath.Join(src, "a.txt"), "alpha")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "beta")

	opts := &Options{
		Source:            src,
		Destination:       dst,
		NamespaceOverride: "ns",
		VerifyAfterWrite:  true,
		KeepVersions:      true,
		KeepDeleted:       true,
	}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	sink := &RecordingEventSink{}
	w := newTestWorker(t, opts, sink, &fakeClock{t: time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)})
	w.Run()

	layout := NewVaultLayout(dst, "ns")
	for _, rel := range []string{"a.txt", filepath.Join("sub", "b.txt")} {
		relSlash := filepath.ToSlash(rel)
		payload := layout.PayloadPath(relSlash)
		if _, err := os.Stat(payload); err != nil {
			t.Errorf("expected payload at %s: %v", payload, err)
		}
	}

	var finished bool
	for _, e := range sink.Events {
		if e.Kind == "Finished" {
			finished = true
			if !e.OK {
				t.Errorf("Finished(ok=%v), want true", e.OK)
			}
		}
	}
	if !finished {
		t.Error("no Finished event emitted")
	}
}

func TestBackupWorker_Run_ChangeTriggersVersion(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	writeFile(t, filepath.Join(src, "a.txt"), "version one")

	opts := &Options{
		Source:            src,
		Destination:       dst,
		NamespaceOverride: "ns",
		KeepVersions:      true,
	}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	sink := &RecordingEventSink{}
	clock := &fakeClock{t: time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)}
	w := newTestWorker(t, opts, sink, clock)
	w.Run()

	// Change the source content and mtime so the fast-equality check fails,
	// then run again at a later timestamp.
	writeFile(t, filepath.Join(src, "a.txt"), "version two, much longer content")
	later := clock.t.Add(time.Hour)
	if err := os.Chtimes(filepath.Join(src, "a.txt"), later, later); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	clock.t = later

	sink2 := &RecordingEventSink{}
	w2 := newTestWorker(t, opts, sink2, clock)
	w2.Run()

	var versioned bool
	for _, e := range sink2.Events {
		if e.Kind == "VersionCreated" {
			versioned = true
			if _, err := os.Stat(e.Payload); err != nil {
				t.Errorf("archived version payload missing: %v", err)
			}
		}
	}
	if !versioned {
		t.Error("expected a VersionCreated event on content change")
	}

	layout := NewVaultLayout(dst, "ns")
	payload := layout.PayloadPath("a.txt")
	got, err := os.ReadFile(payload)
	if err != nil {
		t.Fatalf("ReadFile(payload) error = %v", err)
	}
	if string(got) != "version two, much longer content" {
		t.Errorf("current payload content = %q, want the new content", got)
	}
}

func TestBackupWorker_Run_DeletionTombstones(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	writeFile(t, filepath.Join(src, "keep.txt"), "keep me")
	writeFile(t, filepath.Join(src, "gone.txt"), "delete me")

	opts := &Options{
		Source:            src,
		Destination:       dst,
		NamespaceOverride: "ns",
		KeepDeleted:       true,
	}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	clock := &fakeClock{t: time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)}
	w := newTestWorker(t, opts, &RecordingEventSink{}, clock)
	w.Run()

	if err := os.Remove(filepath.Join(src, "gone.txt")); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	sink2 := &RecordingEventSink{}
	w2 := newTestWorker(t, opts, sink2, clock)
	w2.Run()

	var stashed bool
	for _, e := range sink2.Events {
		if e.Kind == "DeletedStashed" && e.Rel == "gone.txt" {
			stashed = true
			if _, err := os.Stat(e.Payload); err != nil {
				t.Errorf("stashed payload missing: %v", err)
			}
		}
	}
	if !stashed {
		t.Error("expected a DeletedStashed event for gone.txt")
	}

	layout := NewVaultLayout(dst, "ns")
	if _, err := os.Stat(layout.PayloadPath("gone.txt")); !os.IsNotExist(err) {
		t.Error("deleted file's payload still present under the live namespace root")
	}
}

func TestBackupWorker_Run_CancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, filepath.Join(src, "a.txt"), "alpha")

	opts := &Options{Source: src, Destination: dst, NamespaceOverride: "ns"}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	sink := &RecordingEventSink{}
	w := newTestWorker(t, opts, sink, &fakeClock{t: time.Now()})
	w.RequestStop()
	w.Run()

	last := sink.Events[len(sink.Events)-1]
	if last.Kind != "Finished" || last.OK {
		t.Errorf("final event = %+v, want Finished(ok=false)", last)
	}
}
