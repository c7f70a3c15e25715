// Package engine implements the per-source backup worker: scanning,
// versioning, copying, verifying, retaining and reaping files onto a
// removable destination volume, guarded by a device-identity gate.
package engine

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Options is the immutable input to a single BackupWorker run.
type Options struct {
	// Source is the absolute path to the source directory tree.
	Source string
	// Destination is the absolute path to the destination root.
	Destination string

	// VerifyAfterWrite enables post-copy hash verification.
	VerifyAfterWrite bool
	// MaxRetries is the number of verify retries before a file is marked failed.
	MaxRetries int

	// IgnoreGlobs are matched against the normalized forward-slash relative
	// path when they contain '/', and against the file's basename otherwise.
	IgnoreGlobs []string
	// FileWhitelist, when non-empty, is used verbatim instead of a full scan.
	FileWhitelist []string

	// SpeedLimitBps caps the copy rate; 0 means unlimited.
	SpeedLimitBps int64

	// KeepVersions enables version-before-overwrite.
	KeepVersions bool
	// KeepDeleted enables tombstoning of files removed from the source.
	KeepDeleted bool
	// RetentionDays is the age in days after which vault entries are reaped; 0 disables reaping.
	RetentionDays int

	// NamespaceOverride, when non-empty, replaces the derived namespace prefix.
	NamespaceOverride string

	nsOnce sync.Once
	ns     string
}

// Validate checks the cross-field invariants on Options: the destination
// must not be nested inside the source, and the source must not be nested
// inside the destination. As a side effect it resolves Source and
// Destination to absolute, cleaned paths, so every later consumer
// (Namespace, the vault layout, the device gate) sees the same absolute
// form regardless of the working directory a caller happened to launch
// from.
func (o *Options) Validate() error {
	if o.Source == "" {
		return fmt.Errorf("options: source is required")
	}
	if o.Destination == "" {
		return fmt.Errorf("options: destination is required")
	}

	src, err := filepath.Abs(o.Source)
	if err != nil {
		return fmt.Errorf("options: resolving source to an absolute path: %w", err)
	}
	dst, err := filepath.Abs(o.Destination)
	if err != nil {
		return fmt.Errorf("options: resolving destination to an absolute path: %w", err)
	}
	o.Source = src
	o.Destination = dst

	if src == dst {
		return fmt.Errorf("options: source and destination must differ")
	}
	if isWithin(dst, src) {
		return fmt.Errorf("options: destination %q must not be inside source %q", dst, src)
	}
	if isWithin(src, dst) {
		return fmt.Errorf("options: source %q must not be inside destination %q", src, dst)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("options: max retries must be >= 0")
	}
	if o.SpeedLimitBps < 0 {
		return fmt.Errorf("options: speed limit must be >= 0")
	}
	if o.RetentionDays < 0 {
		return fmt.Errorf("options: retention days must be >= 0")
	}
	return nil
}

// isWithin reports whether candidate is inside root (or equal to it).
func isWithin(candidate, root string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..")
}

// Namespace returns the per-source namespace prefix, computed once and cached.
//
// It is NamespaceOverride verbatim when set, else
// "<baseName(source)>_<first-8-hex(sha1(absolute(source)))>". Source is
// resolved to an absolute path here too (not just cleaned), since Namespace
// must stay deterministic across runs launched from different working
// directories even if a caller invokes it before Validate has absolutized
// Options in place.
func (o *Options) Namespace() string {
	o.nsOnce.Do(func() {
		if o.NamespaceOverride != "" {
			o.ns = o.NamespaceOverride
			return
		}
		abs, err := filepath.Abs(o.Source)
		if err != nil {
			abs = filepath.Clean(o.Source)
		}
		base := filepath.Base(abs)
		sum := sha1.Sum([]byte(abs))
		o.ns = base + "_" + hex.EncodeToString(sum[:])[:8]
	})
	return o.ns
}
