package engine

import (
	"path"
	"path/filepath"
	"strings"
)

// CleanRel normalizes a relative path to use forward slashes (backslashes are
// treated as separators on every platform) and removes "." and ".." segments
// via path.Clean. An empty or "."-only input yields "".
func CleanRel(rel string) string {
	if rel == "" {
		return ""
	}
	slashed := strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/")
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == "/" {
		return ""
	}
	return strings.TrimPrefix(cleaned, "/")
}
