package engine

import "path/filepath"

// ignorePattern is a parsed ignore pattern with its matching strategy.
type ignorePattern struct {
	pattern   string
	matchPath bool // true = match against relative path; false = match against basename only
}

// ignoreMatcher checks relative paths against a set of ignore glob patterns.
// Patterns without '/' match against the file's basename only; patterns with
// '/' match against the full forward-slash relative path.
type ignoreMatcher struct {
	patterns []ignorePattern
}

// newIgnoreMatcher builds a matcher from the raw globs in Options.IgnoreGlobs.
// Blank entries are skipped.
func newIgnoreMatcher(rawPatterns []string) *ignoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		if raw == "" {
			continue
		}
		matchPath := false
		for _, c := range raw {
			if c == '/' {
				matchPath = true
				break
			}
		}
		patterns = append(patterns, ignorePattern{pattern: raw, matchPath: matchPath})
	}
	return &ignoreMatcher{patterns: patterns}
}

// match reports whether rel (already forward-slash, vault-relative) should
// be excluded from the backup set.
func (m *ignoreMatcher) match(rel string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	basename := filepath.Base(rel)
	for _, p := range m.patterns {
		var matched bool
		if p.matchPath {
			matched, _ = filepath.Match(p.pattern, rel)
		} else {
			matched, _ = filepath.Match(p.pattern, basename)
		}
		if matched {
			return true
		}
	}
	return false
}
