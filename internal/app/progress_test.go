package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0B"},
		{1023, "1023B"},
		{1024, "1.0KiB"},
		{1536, "1.5KiB"},
		{1 << 20, "1.0MiB"},
		{1 << 30, "1.0GiB"},
	}
	for _, c := range cases {
		if got := formatBytes(c.n); got != c.want {
			t.Errorf("formatBytes(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestProgressBar_Width_NilOutFallsBackToDefault(t *testing.T) {
	p := newProgressBar("job", nil)
	if got := p.width(); got != defaultTermWidth {
		t.Errorf("width() = %d, want default %d", got, defaultTermWidth)
	}
}

func TestProgressBar_Update_WritesLabelAndPercent(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	p := newProgressBar("myjob", f)
	p.Update(50, 100, 1024, 30)

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "myjob") {
		t.Errorf("Update() output %q missing label", out)
	}
	if !strings.Contains(out, "50.0%") {
		t.Errorf("Update() output %q missing percent", out)
	}
}

func TestProgressBar_Done_PrintsStatus(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	p := newProgressBar("myjob", f)
	p.Update(10, 100, 0, -1)
	p.Done(true, "ok")

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "myjob: ok (ok)") {
		t.Errorf("Done() output %q missing expected summary line", data)
	}
}

func TestProgressBar_Done_PrintsFailedStatus(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	p := newProgressBar("myjob", f)
	p.Done(false, "copy failed")

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "myjob: failed (copy failed)") {
		t.Errorf("Done() output %q missing expected failure summary", data)
	}
}
