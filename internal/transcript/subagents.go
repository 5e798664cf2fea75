package transcript

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
)

// DelegationDetector decides whether free text reads like a delegated
// task handoff. The phrase list is configuration, not structure, so the
// heuristic stays swappable and testable on its own.
type DelegationDetector interface {
	Detect(text string) bool
}

// PhraseDetector matches any of a fixed set of phrases, case-insensitive.
type PhraseDetector struct {
	phrases []string
}

// DefaultDelegationPhrases are the handoff markers observed in real
// delegating prompts.
var DefaultDelegationPhrases = []string{
	"you are an agent",
	"launch a new agent",
	"perform the following task",
	"your task is to",
}

func NewPhraseDetector(phrases []string) *PhraseDetector {
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &PhraseDetector{phrases: cleaned}
}

func (d *PhraseDetector) Detect(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range d.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// SubagentInfo describes a delegated session.
type SubagentInfo struct {
	ParentSessionID string
	AgentType       string
	Task            string
}

// SubagentMapper knows which sibling sessions are legacy delegated
// sub-conversations. The mapping is heuristic; a miss simply leaves a
// session classified as regular.
type SubagentMapper struct {
	info     map[string]SubagentInfo
	byParent map[string][]string
}

// taskCall is one delegation-shaped tool invocation found while scanning.
type taskCall struct {
	parentSessionID string
	agentType       string
	prompt          string
	childSessionID  string
}

// taskInput is the recognized shape of a delegation tool invocation.
type taskInput struct {
	SubagentType string `json:"subagent_type"`
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
	SessionID    string `json:"sessionId"`
}

// delegationToolNames are tool names that spawn sub-sessions.
var delegationToolNames = map[string]bool{
	"Task":           true,
	"dispatch_agent": true,
}

// IsDelegationTool reports whether a tool invocation spawns a subagent.
func IsDelegationTool(name string) bool {
	return delegationToolNames[name]
}

// ParseTaskInput decodes a delegation tool invocation's input.
func ParseTaskInput(raw json.RawMessage) (taskInput, bool) {
	var in taskInput
	if len(raw) == 0 || json.Unmarshal(raw, &in) != nil {
		return taskInput{}, false
	}
	if in.SubagentType == "" && in.Prompt == "" && in.Description == "" && in.SessionID == "" {
		return taskInput{}, false
	}
	return in, true
}

// ScanSubagents inspects every session file in dir and links legacy
// subagent sessions to their delegating parents. Unreadable files are
// skipped; the scan is best effort by design.
func ScanSubagents(dir string, detector DelegationDetector) (*SubagentMapper, error) {
	files, err := CollectAllSessionFiles(dir)
	if err != nil {
		return nil, err
	}

	type scannedFile struct {
		path        string
		sessionID   string
		innerID     string
		firstPrompt string
		agentFile   bool
	}

	var scanned []scannedFile
	var calls []taskCall
	for _, path := range files {
		store, err := LoadSessionFile(path)
		if err != nil {
			continue
		}
		sf := scannedFile{
			path:      path,
			sessionID: SessionIDFromPath(path),
			innerID:   store.SessionID,
			agentFile: IsAgentSessionFileName(filepath.Base(path)),
		}
		for _, msg := range store.Messages {
			if sf.firstPrompt == "" && msg.Kind == KindUser && !msg.InternalUser() {
				sf.firstPrompt = strings.TrimSpace(msg.PlainText())
			}
			for _, use := range msg.ToolUses() {
				if !IsDelegationTool(use.Name) {
					continue
				}
				in, ok := ParseTaskInput(use.Input)
				if !ok {
					continue
				}
				calls = append(calls, taskCall{
					parentSessionID: sf.sessionID,
					agentType:       strings.TrimSpace(in.SubagentType),
					prompt:          strings.TrimSpace(in.Prompt),
					childSessionID:  strings.TrimSpace(in.SessionID),
				})
			}
		}
		scanned = append(scanned, sf)
	}

	m := &SubagentMapper{
		info:     map[string]SubagentInfo{},
		byParent: map[string][]string{},
	}

	// Explicit child session ids are authoritative.
	for _, call := range calls {
		if call.childSessionID == "" || call.childSessionID == call.parentSessionID {
			continue
		}
		m.record(call.childSessionID, SubagentInfo{
			ParentSessionID: call.parentSessionID,
			AgentType:       call.agentType,
			Task:            call.prompt,
		})
	}

	// Remaining candidates pair up by task prompt. Agent-named files may
	// also carry their parent's id inline.
	for _, sf := range scanned {
		if _, done := m.info[sf.sessionID]; done {
			continue
		}
		candidate := sf.agentFile
		if !candidate && detector != nil && sf.firstPrompt != "" {
			candidate = detector.Detect(sf.firstPrompt)
		}
		if !candidate {
			continue
		}

		matched := false
		for _, call := range calls {
			if call.parentSessionID == sf.sessionID || call.prompt == "" {
				continue
			}
			if call.prompt == sf.firstPrompt {
				m.record(sf.sessionID, SubagentInfo{
					ParentSessionID: call.parentSessionID,
					AgentType:       call.agentType,
					Task:            call.prompt,
				})
				matched = true
				break
			}
		}
		if !matched && sf.agentFile && sf.innerID != "" && sf.innerID != sf.sessionID {
			m.record(sf.sessionID, SubagentInfo{
				ParentSessionID: sf.innerID,
				Task:            sf.firstPrompt,
			})
		}
	}
	return m, nil
}

func (m *SubagentMapper) record(sessionID string, info SubagentInfo) {
	if _, exists := m.info[sessionID]; exists {
		return
	}
	m.info[sessionID] = info
	m.byParent[info.ParentSessionID] = append(m.byParent[info.ParentSessionID], sessionID)
}

// IsSubagentSession reports whether id was delegated from another session.
func (m *SubagentMapper) IsSubagentSession(id string) bool {
	if m == nil {
		return false
	}
	_, ok := m.info[id]
	return ok
}

// Info returns the delegation details for a session, if known.
func (m *SubagentMapper) Info(id string) (SubagentInfo, bool) {
	if m == nil {
		return SubagentInfo{}, false
	}
	info, ok := m.info[id]
	return info, ok
}

// SessionsFor lists the subagent sessions delegated by parentID.
func (m *SubagentMapper) SessionsFor(parentID string) []string {
	if m == nil {
		return nil
	}
	out := append([]string(nil), m.byParent[parentID]...)
	sort.Strings(out)
	return out
}
