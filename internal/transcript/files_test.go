package transcript

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollectSessionFilesSkipsAgentFiles(t *testing.T) {
	dir := t.TempDir()
	writeSessionFile(t, dir, "sess-1.jsonl", `{"uuid":"a","type":"user"}`)
	writeSessionFile(t, dir, "agent-x.jsonl", `{"uuid":"b","type":"user"}`)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := CollectSessionFiles(dir)
	if err != nil {
		t.Fatalf("CollectSessionFiles: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "sess-1.jsonl" {
		t.Fatalf("unexpected files: %v", files)
	}

	all, err := CollectAllSessionFiles(dir)
	if err != nil {
		t.Fatalf("CollectAllSessionFiles: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 files, got %v", all)
	}
}

func TestIsAgentSessionFileName(t *testing.T) {
	if !IsAgentSessionFileName("agent-abc.jsonl") {
		t.Fatalf("expected agent file name match")
	}
	if IsAgentSessionFileName("sess-abc.jsonl") || IsAgentSessionFileName("agent-abc.json") {
		t.Fatalf("unexpected agent file name match")
	}
}

func TestSessionIDFromPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/p/sess-1.jsonl":    "sess-1",
		"/tmp/p/agent-abc.jsonl": "abc",
		"sess-2.jsonl":           "sess-2",
		"":                       "",
	}
	for path, want := range cases {
		if got := SessionIDFromPath(path); got != want {
			t.Fatalf("SessionIDFromPath(%q): expected %q, got %q", path, want, got)
		}
	}
}
