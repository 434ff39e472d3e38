// Package testutil provides filesystem fixture helpers for yaql tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to dir/name, creating parent directories as
// needed, and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// WriteSchemaFile writes a .yasl schema file into a fresh temp directory and
// returns its path.
func WriteSchemaFile(t *testing.T, content string) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), "schema.yasl", content)
}

// WriteDataFile writes a .yaml data file into a fresh temp directory and
// returns its path.
func WriteDataFile(t *testing.T, content string) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), "data.yaml", content)
}
