package orchestrator

import (
	"os"
	"path/filepath"
	"strings"

	"judgecore/pkg/judgeerr"
)

// safeJoin resolves relPath against basePath, rejecting absolute paths and
// any ".." component that would escape basePath. Grounded on the same
// path-traversal guard this codebase already uses to resolve
// submission-relative file paths.
func safeJoin(basePath, relPath string) (string, error) {
	if relPath == "" {
		return "", judgeerr.New(judgeerr.InvalidParams).WithDetail("field", "path")
	}
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", judgeerr.New(judgeerr.PathTraversal).WithDetail("path", relPath)
	}
	full := filepath.Join(basePath, clean)
	if !strings.HasPrefix(full, filepath.Clean(basePath)+string(filepath.Separator)) {
		return "", judgeerr.New(judgeerr.PathTraversal).WithDetail("path", relPath)
	}
	return full, nil
}

// removeIfExists deletes path, swallowing a not-exist error — the caller
// never knows in advance which scratch files a given run actually
// produced.
func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
