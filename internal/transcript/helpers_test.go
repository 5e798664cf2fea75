package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSessionFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func loadFile(t *testing.T, path string) *FileMessages {
	t.Helper()
	store, err := LoadSessionFile(path)
	if err != nil {
		t.Fatalf("LoadSessionFile(%s): %v", path, err)
	}
	return store
}

func assembleFiles(t *testing.T, paths ...string) *Graph {
	t.Helper()
	stores := make([]*FileMessages, 0, len(paths))
	for _, p := range paths {
		stores = append(stores, loadFile(t, p))
	}
	return Assemble(stores)
}
