package transcript

import (
	"fmt"
	"path/filepath"
	"strings"
)

// TraceLineage returns the chain of session files the given log continues
// from, oldest first and ending with path itself. A file with no
// compaction pointer yields a single-element chain.
//
// The walk is bounded by the number of sibling logs and by a seen-set, so
// a damaged or self-referential pointer chain terminates instead of
// looping.
func TraceLineage(path string) ([]string, error) {
	dir := filepath.Dir(path)
	siblings, err := CollectAllSessionFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan session dir: %w", err)
	}

	chain := []string{path}
	seen := map[string]bool{SessionIDFromPath(path): true}
	current := path

	for i := 0; i < len(siblings); i++ {
		prevID, err := compactedFromID(current)
		if err != nil {
			// The head of the chain is unreadable; keep what we have.
			break
		}
		prevID = strings.TrimSpace(prevID)
		if prevID == "" || seen[prevID] {
			break
		}
		prevPath := filepath.Join(dir, prevID+".jsonl")
		if !isFile(prevPath) {
			break
		}
		seen[prevID] = true
		chain = append([]string{prevPath}, chain...)
		current = prevPath
	}
	return chain, nil
}

// LineagePredecessors returns the session ids a file was compacted from,
// excluding the file's own id. Used by batch processing to avoid building
// a predecessor twice.
func LineagePredecessors(path string) ([]string, error) {
	chain, err := TraceLineage(path)
	if err != nil {
		return nil, err
	}
	if len(chain) <= 1 {
		return nil, nil
	}
	ids := make([]string, 0, len(chain)-1)
	for _, p := range chain[:len(chain)-1] {
		ids = append(ids, SessionIDFromPath(p))
	}
	return ids, nil
}

// compactedFromID reads only the lineage pointer from a session file.
func compactedFromID(path string) (string, error) {
	store, err := LoadSessionFile(path)
	if err != nil {
		return "", err
	}
	return store.CompactedFrom, nil
}
