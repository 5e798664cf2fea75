package transcript

import (
	"fmt"
)

// BuildReport summarizes one session's processing for user-facing output.
type BuildReport struct {
	SessionID    string
	Type         SessionType
	AgentName    string
	SourceFiles  []string
	Messages     int
	Branches     int
	Sidechains   int
	SkippedLines int
	Stats        AssembleStats
	Written      *WriteResult
}

// BuildSession runs the full pipeline for one session log: lineage trace,
// per-file parse, merge, classification, navigation, and rendering into
// outDir. Failures reading the given file are fatal for this session;
// everything recoverable is counted and reported instead.
func BuildSession(path, outDir string, mapper *SubagentMapper, opts WriteOptions) (*BuildReport, error) {
	chain, err := TraceLineage(path)
	if err != nil {
		return nil, err
	}

	stores := make([]*FileMessages, 0, len(chain))
	loaded := make([]string, 0, len(chain))
	skipped := 0
	for _, file := range chain {
		store, err := LoadSessionFile(file)
		if err != nil {
			if file == path {
				return nil, err
			}
			// A damaged predecessor costs its history, not the session.
			continue
		}
		skipped += store.SkippedLines()
		stores = append(stores, store)
		loaded = append(loaded, file)
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("no readable files for session %s", path)
	}

	g := Assemble(stores)
	Classify(g, mapper)

	written, err := WriteTranscripts(outDir, g, loaded, opts)
	if err != nil {
		return nil, err
	}

	return &BuildReport{
		SessionID:    SessionIDFromPath(path),
		Type:         g.Type,
		AgentName:    g.AgentName,
		SourceFiles:  loaded,
		Messages:     g.Len(),
		Branches:     CountBranches(g),
		Sidechains:   CountSidechains(g),
		SkippedLines: skipped,
		Stats:        g.Stats,
		Written:      written,
	}, nil
}
