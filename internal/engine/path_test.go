package engine

import "testing"

func TestCleanRel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"foo/bar.txt", "foo/bar.txt"},
		{`foo\bar.txt`, "foo/bar.txt"},
		{"/foo/bar.txt", "foo/bar.txt"},
		{".", ""},
		{"", ""},
		{"./foo.txt", "foo.txt"},
		{"foo//bar.txt", "foo/bar.txt"},
	}
	for _, tt := range tests {
		if got := CleanRel(tt.in); got != tt.want {
			t.Errorf("CleanRel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
