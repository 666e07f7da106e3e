package config

import (
	"os"
	"path/filepath"
	"strings"
)

// executableDir locates the directory holding the running binary, following a
// symlinked install. Falls back to the working directory.
func executableDir() string {
	if exe, err := os.Executable(); err == nil && exe != "" {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil && resolved != "" {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return "."
}

// ResolveRuntimePath turns a configured directory into an absolute path.
// Relative values are anchored at the binary's directory; an empty value
// falls back to fallbackSubdir next to the binary.
func ResolveRuntimePath(raw, fallbackSubdir string) string {
	dir := strings.TrimSpace(raw)
	if dir == "" {
		dir = strings.TrimSpace(fallbackSubdir)
		if dir == "" {
			return executableDir()
		}
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(executableDir(), dir)
}
