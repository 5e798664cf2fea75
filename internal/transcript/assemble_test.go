package transcript

import (
	"reflect"
	"testing"
)

func TestAssembleEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"hi"}}`,
		`{"uuid":"b","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"hello"}}`,
		`{"uuid":"c","type":"system","subtype":"compact_boundary"}`,
	)

	g := assembleFiles(t, path)
	if g.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", g.Len())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "a" {
		t.Fatalf("expected single root a, got %v", g.Roots)
	}
	flow := LinearFlow(g)
	if !reflect.DeepEqual(flow, []string{"a", "b"}) {
		t.Fatalf("expected flow [a b], got %v", flow)
	}
	if g.Stats.FilteredIDs != 1 {
		t.Fatalf("expected 1 filtered id, got %d", g.Stats.FilteredIDs)
	}
}

func TestAssembleDedupFirstFileWins(t *testing.T) {
	dir := t.TempDir()
	fileA := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"original"}}`,
		`{"uuid":"b","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"reply"}}`,
	)
	fileB := writeSessionFile(t, dir, "sess-2.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"resent copy"}}`,
		`{"uuid":"c","parentUuid":"a","type":"user","message":{"role":"user","content":"new turn"}}`,
	)

	g := assembleFiles(t, fileA, fileB)
	if g.Len() != 3 {
		t.Fatalf("expected 3 unique messages, got %d", g.Len())
	}
	if got := g.Messages["a"].PlainText(); got != "original" {
		t.Fatalf("expected first file's copy to win, got %q", got)
	}
	if g.Stats.DuplicateIDs != 1 {
		t.Fatalf("expected 1 duplicate, got %d", g.Stats.DuplicateIDs)
	}
	if !reflect.DeepEqual(g.Children["a"], []string{"b", "c"}) {
		t.Fatalf("expected children [b c], got %v", g.Children["a"])
	}
}

func TestAssembleDanglingParentBecomesRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"hi"}}`,
		`{"uuid":"b","parentUuid":"missing","type":"assistant","message":{"role":"assistant","content":"orphan"}}`,
	)

	g := assembleFiles(t, path)
	if g.Len() != 2 {
		t.Fatalf("expected both messages retained, got %d", g.Len())
	}
	if !reflect.DeepEqual(g.Roots, []string{"a", "b"}) {
		t.Fatalf("expected roots [a b], got %v", g.Roots)
	}
	if g.Stats.DanglingParents != 1 {
		t.Fatalf("expected 1 dangling parent, got %d", g.Stats.DanglingParents)
	}
}

func TestAssembleFilteredParentOrphansBecomeRoots(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"sum","type":"user","isCompactSummary":true,"message":{"role":"user","content":"summary"}}`,
		`{"uuid":"a","parentUuid":"sum","type":"user","message":{"role":"user","content":"continue"}}`,
	)

	g := assembleFiles(t, path)
	if g.Len() != 1 {
		t.Fatalf("expected only the real message, got %d", g.Len())
	}
	if _, ok := g.Messages["sum"]; ok {
		t.Fatalf("compact summary must never enter the graph")
	}
	if len(g.Roots) != 1 || g.Roots[0] != "a" {
		t.Fatalf("expected orphaned child promoted to root, got %v", g.Roots)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	dir := t.TempDir()
	fileA := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"hi"}}`,
		`{"uuid":"b","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"x"}}`,
		`{"uuid":"c","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"y"}}`,
	)
	fileB := writeSessionFile(t, dir, "sess-2.jsonl",
		`{"uuid":"b","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"x"}}`,
		`{"uuid":"d","parentUuid":"b","type":"user","message":{"role":"user","content":"z"}}`,
	)

	first := assembleFiles(t, fileA, fileB)
	second := assembleFiles(t, fileA, fileB)
	if !reflect.DeepEqual(first.Roots, second.Roots) {
		t.Fatalf("roots differ: %v vs %v", first.Roots, second.Roots)
	}
	if !reflect.DeepEqual(first.Children, second.Children) {
		t.Fatalf("children differ: %v vs %v", first.Children, second.Children)
	}
	if !reflect.DeepEqual(first.Stats, second.Stats) {
		t.Fatalf("stats differ: %+v vs %+v", first.Stats, second.Stats)
	}
}

func TestAssembleChildOrderBySequence(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"root"}}`,
		`{"uuid":"c2","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"second"}}`,
		`{"uuid":"c1","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"first? no, third"}}`,
	)

	g := assembleFiles(t, path)
	if !reflect.DeepEqual(g.Children["a"], []string{"c2", "c1"}) {
		t.Fatalf("children must keep append order, got %v", g.Children["a"])
	}
}

func TestAssembleEmptyStores(t *testing.T) {
	g := Assemble(nil)
	if g.Len() != 0 || len(g.Roots) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
	if flow := LinearFlow(g); flow != nil {
		t.Fatalf("expected nil flow, got %v", flow)
	}
	if branches := Branches(g); branches != nil {
		t.Fatalf("expected no branches, got %v", branches)
	}
}

func TestGraphSessionID(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","sessionId":"sess-1","message":{"role":"user","content":"hi"}}`,
	)
	g := assembleFiles(t, path)
	if g.SessionID() != "sess-1" {
		t.Fatalf("expected sess-1, got %q", g.SessionID())
	}
}
