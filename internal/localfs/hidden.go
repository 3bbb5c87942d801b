// Package localfs lists local directories for the file-list command.
// The backend listing and the directory watcher share its hidden-file rule.
package localfs

import (
	"path/filepath"
	"strings"
)

// IsHidden reports whether the base name of path marks it as hidden.
func IsHidden(path string) bool {
	return IsHiddenName(filepath.Base(path))
}

// IsHiddenName reports whether a dot-file name is hidden. "." and ".." are not.
func IsHiddenName(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}
