package app

import (
	"os"
	"path/filepath"
	"testing"

	"plugbackup/internal/config"
)

func TestRunner_RunJob_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	destination := filepath.Join(dir, "destination")
	logDir := filepath.Join(dir, "logs")

	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(source, "file.txt"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// The device gate treats a missing destination root as an unplugged
	// volume and waits for it, so it must exist before the run.
	if err := os.MkdirAll(destination, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg := &config.Config{
		LogDir: logDir,
		Jobs: []config.Job{
			{
				Name:              "photos",
				Source:            source,
				Destination:       destination,
				NamespaceOverride: "ns",
				VerifyAfterWrite:  true,
			},
		},
	}

	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	defer runner.Close()

	job, err := cfg.JobByName("photos")
	if err != nil {
		t.Fatalf("JobByName() error = %v", err)
	}

	ok, err := runner.RunJob(*job)
	if err != nil {
		t.Fatalf("RunJob() error = %v", err)
	}
	if !ok {
		t.Error("RunJob() ok = false, want true")
	}

	if _, err := os.Stat(filepath.Join(destination, "ns", "file.txt")); err != nil {
		t.Errorf("expected payload under destination: %v", err)
	}
}

func TestRunner_RunAll_RunsEveryJob(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")

	var jobs []config.Job
	for _, name := range []string{"a", "b"} {
		source := filepath.Join(dir, name, "source")
		destination := filepath.Join(dir, name, "destination")
		if err := os.MkdirAll(source, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.MkdirAll(destination, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(filepath.Join(source, "f.txt"), []byte(name), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		jobs = append(jobs, config.Job{
			Name:              name,
			Source:            source,
			Destination:       destination,
			NamespaceOverride: "ns",
		})
	}

	cfg := &config.Config{LogDir: logDir, Jobs: jobs}
	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	defer runner.Close()

	results, err := runner.RunAll()
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if !r.OK {
			t.Errorf("job %q finished ok=false", r.Name)
		}
	}
}

func TestOptionsForJob_AppliesIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	ignoreFile := filepath.Join(dir, "ignore.txt")
	if err := os.WriteFile(ignoreFile, []byte("*.tmp\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	job := config.Job{
		Name:        "job",
		Source:      filepath.Join(dir, "src"),
		Destination: filepath.Join(dir, "dst"),
		IgnoreGlobs: []string{"*.bak"},
		IgnoreFile:  ignoreFile,
	}

	opts, err := optionsForJob(job)
	if err != nil {
		t.Fatalf("optionsForJob() error = %v", err)
	}

	want := map[string]bool{"*.bak": false, "*.tmp": false}
	for _, g := range opts.IgnoreGlobs {
		if _, ok := want[g]; ok {
			want[g] = true
		}
	}
	for glob, seen := range want {
		if !seen {
			t.Errorf("expected ignore glob %q to be present in merged list %v", glob, opts.IgnoreGlobs)
		}
	}
}
