package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes content to path, creating parent directories as needed.
// An existing file at the same path is overwritten without warning.
func WriteFile(path, content string) error {
	if path == "" {
		return fmt.Errorf("project: target path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("project: ensure parent of %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("project: write %s: %w", path, err)
	}
	return nil
}
