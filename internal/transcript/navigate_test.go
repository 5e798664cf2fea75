package transcript

import (
	"reflect"
	"testing"
)

func TestLinearFlowFollowsFirstChild(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"root"}}`,
		`{"uuid":"b","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"kept"}}`,
		`{"uuid":"c","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"retry"}}`,
	)

	g := assembleFiles(t, path)
	if flow := LinearFlow(g); !reflect.DeepEqual(flow, []string{"a", "b"}) {
		t.Fatalf("expected flow [a b], got %v", flow)
	}
}

func TestBranchesAlternateStartsAtDivergenceChild(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"root"}}`,
		`{"uuid":"b","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"kept"}}`,
		`{"uuid":"c","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"retry"}}`,
	)

	g := assembleFiles(t, path)
	branches := Branches(g)
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}

	main := branches[0]
	if main.ID != "a" || !reflect.DeepEqual(main.MessageIDs, []string{"a", "b"}) {
		t.Fatalf("unexpected main branch: %+v", main)
	}
	if main.ParentBranchID != "" {
		t.Fatalf("main branch has no parent, got %q", main.ParentBranchID)
	}
	if !reflect.DeepEqual(main.ChildBranchIDs, []string{"c"}) {
		t.Fatalf("expected main to link child branch c, got %v", main.ChildBranchIDs)
	}

	alt := branches[1]
	if !reflect.DeepEqual(alt.MessageIDs, []string{"c"}) {
		t.Fatalf("alternate branch must not repeat the shared prefix, got %v", alt.MessageIDs)
	}
	if alt.ParentBranchID != "a" {
		t.Fatalf("expected alternate parent branch a, got %q", alt.ParentBranchID)
	}
}

func TestBranchesDeepSplits(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"1"}}`,
		`{"uuid":"b","parentUuid":"a","type":"assistant","message":{"role":"assistant","content":"2"}}`,
		`{"uuid":"c","parentUuid":"b","type":"user","message":{"role":"user","content":"3"}}`,
		`{"uuid":"d","parentUuid":"b","type":"user","message":{"role":"user","content":"3-alt"}}`,
		`{"uuid":"e","parentUuid":"d","type":"assistant","message":{"role":"assistant","content":"4-alt"}}`,
	)

	g := assembleFiles(t, path)
	branches := Branches(g)
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
	if !reflect.DeepEqual(branches[0].MessageIDs, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected main: %v", branches[0].MessageIDs)
	}
	if !reflect.DeepEqual(branches[1].MessageIDs, []string{"d", "e"}) {
		t.Fatalf("unexpected alternate: %v", branches[1].MessageIDs)
	}
}

func TestBranchesSidechainTagging(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"main"}}`,
		`{"uuid":"s1","isSidechain":true,"type":"user","message":{"role":"user","content":"delegated task"}}`,
		`{"uuid":"s2","parentUuid":"s1","isSidechain":true,"type":"assistant","message":{"role":"assistant","content":"done"}}`,
	)

	g := assembleFiles(t, path)
	branches := Branches(g)
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
	if branches[0].IsSidechain {
		t.Fatalf("main branch must not be a sidechain")
	}
	side := branches[1]
	if !side.IsSidechain {
		t.Fatalf("expected sidechain branch")
	}
	if side.ID != "sidechain-s1" {
		t.Fatalf("expected synthetic sidechain id, got %q", side.ID)
	}
	if CountSidechains(g) != 1 || CountBranches(g) != 2 {
		t.Fatalf("unexpected counts: branches=%d sidechains=%d", CountBranches(g), CountSidechains(g))
	}
}

func TestTraversalTerminatesOnParentCycle(t *testing.T) {
	// Artificial cycle: a and b claim each other as parent. The loader
	// never produces this from an append-only log, but traversal must
	// still terminate.
	g := &Graph{
		Messages: map[string]Message{
			"a": {ID: "a", ParentID: "b", Sequence: 1},
			"b": {ID: "b", ParentID: "a", Sequence: 2},
		},
		Children: map[string][]string{"a": {"b"}, "b": {"a"}},
		Roots:    []string{"a"},
	}

	flow := LinearFlow(g)
	if len(flow) > g.Len() {
		t.Fatalf("flow visited more ids than messages: %v", flow)
	}
	branches := Branches(g)
	total := 0
	for _, br := range branches {
		total += len(br.MessageIDs)
	}
	if total > g.Len() {
		t.Fatalf("branches visited more ids than messages: %v", branches)
	}
}

func TestSidechainBranches(t *testing.T) {
	dir := t.TempDir()
	path := writeSessionFile(t, dir, "sess-1.jsonl",
		`{"uuid":"a","type":"user","message":{"role":"user","content":"main"}}`,
		`{"uuid":"s1","isSidechain":true,"type":"user","message":{"role":"user","content":"task"}}`,
	)
	g := assembleFiles(t, path)
	side := SidechainBranches(g)
	if len(side) != 1 || side[0].ID != "sidechain-s1" {
		t.Fatalf("unexpected sidechain branches: %+v", side)
	}
}
