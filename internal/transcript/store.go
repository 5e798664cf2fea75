package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmptyFile is returned when a session file contains no usable lines.
var ErrEmptyFile = errors.New("session file is empty")

// FileMessages is the result of parsing one session JSONL file.
type FileMessages struct {
	Path     string
	Messages []Message

	// SessionID is the first non-empty sessionId seen in the file.
	SessionID string

	// CompactedFrom is the predecessor session id recorded on a compact
	// boundary, empty when the file starts a fresh session.
	CompactedFrom string

	// BoundaryIDs and SummaryIDs hold ids of synthetic continuity records
	// (compaction boundaries and compact summaries) so assembly can skip
	// them outright.
	BoundaryIDs map[string]bool
	SummaryIDs  map[string]bool

	MalformedLines int
	MissingIDLines int
}

// LoadSessionFile parses one session log. A malformed line or a line
// without a uuid is counted and skipped, never fatal; only an unreadable
// or empty file fails the load.
func LoadSessionFile(path string) (*FileMessages, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	result := &FileMessages{
		Path:        path,
		BoundaryIDs: map[string]bool{},
		SummaryIDs:  map[string]bool{},
	}

	lineNo := 0
	sawLine := false
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read session file: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			sawLine = true
			lineNo++
			result.consumeLine(line, lineNo)
		}
		if err == io.EOF {
			break
		}
	}

	if !sawLine {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	return result, nil
}

func (r *FileMessages) consumeLine(line []byte, sequence int) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		r.MalformedLines++
		return
	}

	if r.SessionID == "" && env.SessionID != "" {
		r.SessionID = env.SessionID
	}
	if env.CompactMetadata != nil && r.CompactedFrom == "" {
		r.CompactedFrom = env.CompactMetadata.PreCompactSessionID
	}

	// Summary and snapshot records carry no uuid and are not messages.
	if env.Type == envelopeTypeSummary || env.Type == envelopeTypeSnapshot {
		return
	}

	msg := messageFromEnvelope(env, line, sequence)
	if msg.ID == "" {
		r.MissingIDLines++
		return
	}

	if env.isCompactBoundary() {
		r.BoundaryIDs[msg.ID] = true
	}
	if env.IsCompactSummary {
		r.SummaryIDs[msg.ID] = true
	}
	r.Messages = append(r.Messages, msg)
}

// SkippedLines is the number of input lines dropped during parsing.
func (r *FileMessages) SkippedLines() int {
	return r.MalformedLines + r.MissingIDLines
}
