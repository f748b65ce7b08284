// Package classify holds the pure, stateless predicates notefs uses to
// turn kernel-visible names and paths into the shapes the store
// understands: parent/basename splitting, title/syntax decomposition,
// and the editor-temp-file taxonomy that must never reach the store.
package classify

import "strings"

// Split divides an absolute kernel path into its parent directory and
// final basename. "/x" splits into ("/", "x"); a path with no further
// "/" after the leading one also has parent "/".
func Split(path string) (parent, basename string) {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/", path[idx+1:]
	}
	return path[:idx], path[idx+1:]
}

// NormalizeForStore strips the leading "/" from a kernel path. The
// root itself maps to "/" unchanged.
func NormalizeForStore(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimPrefix(path, "/")
}

// DecomposeFilename splits a note's basename into (title, syntax) on
// the last ".". A name with no "." is invalid: the syntax tag is
// mandatory and never inferred.
func DecomposeFilename(name string) (title, syntax string, ok bool) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// IsIgnored reports whether name matches the editor-temp/backup/dotfile
// taxonomy that must never be persisted to the store: dotfiles,
// emacs-style backup/lock names, and the common temp-file suffixes
// vim/VSCode/other editors produce while probing or autosaving.
func IsIgnored(name string) bool {
	switch {
	case strings.HasPrefix(name, "."):
		return true
	case strings.HasSuffix(name, "~"):
		return true
	case strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#"):
		return true
	case strings.HasPrefix(name, ".#"):
		return true
	case strings.HasPrefix(name, ".vscode"):
		return true
	case strings.HasSuffix(name, ".tmp"), strings.HasSuffix(name, ".temp"):
		return true
	case strings.Contains(name, ".tmp."), strings.Contains(name, ".temp."):
		return true
	default:
		return false
	}
}
