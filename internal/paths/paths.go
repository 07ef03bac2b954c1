package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// StateDirName is the per-repository directory xtags keeps its
// configuration and tag database in.
const StateDirName = ".xtags"

// StateDir returns the xtags state directory under repoRoot.
func StateDir(repoRoot string) string {
	return filepath.Join(repoRoot, StateDirName)
}

// EnsureStateDir creates the state directory if it does not exist yet
// and returns its path.
func EnsureStateDir(repoRoot string) (string, error) {
	dir := StateDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigPath returns the configuration file location under repoRoot.
func ConfigPath(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), "config.toml")
}

// DBPath resolves the tag database location. Relative store paths live
// under the state directory.
func DBPath(repoRoot, storePath string) string {
	if storePath == "" {
		storePath = "tags.db"
	}
	if filepath.IsAbs(storePath) {
		return storePath
	}
	return filepath.Join(StateDir(repoRoot), storePath)
}

// ForRequest converts a source file path into the form sent to the
// external parser. Absolute paths become relative to the parser's
// working directory; relative paths pass through unchanged. If the
// path cannot be expressed relative to workdir it is sent as-is.
func ForRequest(path string, workdir string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(workdir, path)
	if err != nil {
		return path
	}
	return rel
}

// Normalize converts a path to forward slashes for stable storage
// and output across platforms.
func Normalize(path string) string {
	return filepath.ToSlash(path)
}

// IsWithin reports whether path is inside root after cleaning. Both
// paths must be absolute or both relative to the same base.
func IsWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Under joins a root with a normalized (forward-slash) relative path
// using the OS separator.
func Under(root string, normalized string) string {
	parts := strings.Split(strings.ReplaceAll(normalized, "\\", "/"), "/")
	return filepath.Join(append([]string{root}, parts...)...)
}
