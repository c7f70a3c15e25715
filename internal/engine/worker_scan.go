package engine

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// scan builds the set of relative paths to back up: the whitelist verbatim
// if non-empty, else a recursive enumeration of regular files under the
// source (no symlink following), case-insensitively sorted, ignore-filtered
// and with empty paths dropped.
func (w *BackupWorker) scan() ([]string, error) {
	var rels []string

	if len(w.opts.FileWhitelist) > 0 {
		rels = append(rels, w.opts.FileWhitelist...)
	} else {
		err := w.fs.WalkFiles(w.opts.Source, func(path string, info fs.FileInfo) error {
			rel, err := filepath.Rel(w.opts.Source, path)
			if err != nil {
				return nil // unreadable subtree entry: skip, don't fail the run
			}
			rels = append(rels, rel)
			return nil
		})
		if err != nil {
			w.logger.Warn("scan encountered an error, continuing with partial results", "error", err)
		}
		sort.Slice(rels, func(i, j int) bool {
			return strings.ToLower(rels[i]) < strings.ToLower(rels[j])
		})
	}

	matcher := newIgnoreMatcher(w.opts.IgnoreGlobs)
	filtered := make([]string, 0, len(rels))
	for _, rel := range rels {
		clean := CleanRel(rel)
		if clean == "" {
			continue
		}
		if matcher.match(clean) {
			continue
		}
		filtered = append(filtered, clean)
	}
	return filtered, nil
}

// totalSize sums the on-disk size of every surviving entry, skipping
// entries that no longer exist or aren't regular files.
func (w *BackupWorker) totalSize(rels []string) int64 {
	var sum int64
	for _, rel := range rels {
		info, err := w.fs.Stat(filepath.Join(w.opts.Source, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() {
			continue
		}
		sum += info.Size()
	}
	return sum
}
