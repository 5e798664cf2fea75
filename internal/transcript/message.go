// Package transcript reconstructs conversation DAGs from Claude Code
// session JSONL files and renders them as markdown transcripts.
//
// A session is an append-only log of messages linked by parentUuid. Context
// compaction splits one logical session across several physical files; this
// package merges those files back into a single graph, classifies the
// session (regular, sidechain, legacy subagent), and linearizes it.
package transcript

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Kind is the coarse message type from the log's type discriminator.
type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindSystem    Kind = "system"
	KindUnknown   Kind = "unknown"
)

// Message is one retained record from a session log.
type Message struct {
	ID          string
	ParentID    string
	Kind        Kind
	Content     Content
	Sequence    int // 1-based line position within its source file
	FileIndex   int // position of the source file in the lineage chain
	Timestamp   time.Time
	IsSidechain bool
	IsMeta      bool
	UserType    string
	SessionID   string
	Extra       map[string]json.RawMessage
}

// InternalUser reports whether a user-kind message was generated by the
// tool itself rather than typed by a person.
func (m Message) InternalUser() bool {
	if m.Kind != KindUser {
		return false
	}
	if m.IsMeta {
		return true
	}
	return m.UserType != "" && !strings.EqualFold(m.UserType, "external")
}

// Content is the message payload: either plain text or structured blocks.
type Content interface {
	isContent()
}

// TextContent is a bare string payload.
type TextContent struct {
	Text string
}

// PartsContent is a list of typed content blocks.
type PartsContent struct {
	Parts []Part
}

func (TextContent) isContent()  {}
func (PartsContent) isContent() {}

// Part is one typed block inside a structured payload.
type Part interface {
	isPart()
}

// TextPart is a text block.
type TextPart struct {
	Text string
}

// ThinkingPart is an extended-thinking block.
type ThinkingPart struct {
	Text string
}

// ToolUsePart is a tool invocation.
type ToolUsePart struct {
	ToolID string
	Name   string
	Input  json.RawMessage
}

// ToolResultPart carries the output of a prior tool invocation.
type ToolResultPart struct {
	ToolUseID string
	Payload   json.RawMessage
	IsError   bool
}

// RawPart preserves a block whose shape is not recognized.
type RawPart struct {
	Value json.RawMessage
}

func (TextPart) isPart()       {}
func (ThinkingPart) isPart()   {}
func (ToolUsePart) isPart()    {}
func (ToolResultPart) isPart() {}
func (RawPart) isPart()        {}

// PlainText flattens the content's text and thinking blocks for previews.
// Tool blocks contribute nothing.
func (m Message) PlainText() string {
	switch c := m.Content.(type) {
	case TextContent:
		return c.Text
	case PartsContent:
		var parts []string
		for _, p := range c.Parts {
			switch v := p.(type) {
			case TextPart:
				parts = append(parts, v.Text)
			case ThinkingPart:
				parts = append(parts, v.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// ToolUses returns the tool invocations carried by this message.
func (m Message) ToolUses() []ToolUsePart {
	parts, ok := m.Content.(PartsContent)
	if !ok {
		return nil
	}
	var out []ToolUsePart
	for _, p := range parts.Parts {
		if tu, ok := p.(ToolUsePart); ok {
			out = append(out, tu)
		}
	}
	return out
}

// IsToolResult reports whether the message carries only tool results.
func (m Message) IsToolResult() bool {
	parts, ok := m.Content.(PartsContent)
	if !ok || len(parts.Parts) == 0 {
		return false
	}
	for _, p := range parts.Parts {
		if _, ok := p.(ToolResultPart); !ok {
			return false
		}
	}
	return true
}

const (
	envelopeTypeUser      = "user"
	envelopeTypeAssistant = "assistant"
	envelopeTypeSystem    = "system"
	envelopeTypeSummary   = "summary"
	envelopeTypeSnapshot  = "file-history-snapshot"

	systemSubtypeCompactBoundary = "compact_boundary"
)

type envelope struct {
	UUID             string           `json:"uuid"`
	ParentUUID       *string          `json:"parentUuid"`
	Type             string           `json:"type"`
	Subtype          string           `json:"subtype"`
	Message          json.RawMessage  `json:"message"`
	Content          string           `json:"content"`
	Timestamp        json.RawMessage  `json:"timestamp"`
	SessionID        string           `json:"sessionId"`
	IsSidechain      bool             `json:"isSidechain"`
	IsCompactSummary bool             `json:"isCompactSummary"`
	IsMeta           bool             `json:"isMeta"`
	UserType         string           `json:"userType"`
	CompactMetadata  *compactMetadata `json:"compactMetadata"`
}

type compactMetadata struct {
	Trigger             string `json:"trigger"`
	PreTokens           int    `json:"preTokens"`
	PreCompactSessionID string `json:"preCompactSessionId"`
}

type envelopeMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// envelopeKnownFields are removed from the extra bag after decoding.
var envelopeKnownFields = []string{
	"uuid", "parentUuid", "type", "subtype", "message", "content",
	"timestamp", "sessionId", "isSidechain", "isCompactSummary",
	"isMeta", "userType", "compactMetadata",
}

func (env envelope) isCompactBoundary() bool {
	return env.Type == envelopeTypeSystem && env.Subtype == systemSubtypeCompactBoundary
}

func (env envelope) kind() Kind {
	switch env.Type {
	case envelopeTypeUser:
		return KindUser
	case envelopeTypeAssistant:
		return KindAssistant
	case envelopeTypeSystem:
		return KindSystem
	default:
		return KindUnknown
	}
}

func messageFromEnvelope(env envelope, line []byte, sequence int) Message {
	msg := Message{
		ID:          strings.TrimSpace(env.UUID),
		Kind:        env.kind(),
		Sequence:    sequence,
		Timestamp:   parseTimestamp(env.Timestamp),
		IsSidechain: env.IsSidechain,
		IsMeta:      env.IsMeta,
		UserType:    strings.TrimSpace(env.UserType),
		SessionID:   strings.TrimSpace(env.SessionID),
		Extra:       extraFields(line),
	}
	if env.ParentUUID != nil {
		msg.ParentID = strings.TrimSpace(*env.ParentUUID)
	}
	msg.Content = parseContent(env)
	return msg
}

func parseContent(env envelope) Content {
	if len(env.Message) > 0 {
		var inner envelopeMessage
		if json.Unmarshal(env.Message, &inner) == nil && len(inner.Content) > 0 {
			return parseContentValue(inner.Content)
		}
	}
	return TextContent{Text: env.Content}
}

func parseContentValue(raw json.RawMessage) Content {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return TextContent{Text: asString}
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err == nil {
		parts := make([]Part, 0, len(blocks))
		for _, block := range blocks {
			parts = append(parts, parsePart(block))
		}
		return PartsContent{Parts: parts}
	}

	return PartsContent{Parts: []Part{RawPart{Value: raw}}}
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

func parsePart(raw json.RawMessage) Part {
	var block contentBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return RawPart{Value: raw}
	}
	switch block.Type {
	case "text", "input_text":
		return TextPart{Text: block.Text}
	case "thinking":
		if block.Thinking != "" {
			return ThinkingPart{Text: block.Thinking}
		}
		return ThinkingPart{Text: block.Text}
	case "tool_use":
		return ToolUsePart{ToolID: block.ID, Name: block.Name, Input: block.Input}
	case "tool_result":
		return ToolResultPart{ToolUseID: block.ToolUseID, Payload: block.Content, IsError: block.IsError}
	default:
		return RawPart{Value: raw}
	}
}

// parseTimestamp accepts RFC 3339 strings and numeric epoch seconds.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if asString == "" {
			return time.Time{}
		}
		if t, err := time.Parse(time.RFC3339Nano, asString); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, asString); err == nil {
			return t
		}
		return time.Time{}
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil && asNumber > 0 {
		sec := int64(asNumber)
		nsec := int64((asNumber - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC()
	}
	return time.Time{}
}

func extraFields(line []byte) map[string]json.RawMessage {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(line, &all); err != nil {
		return nil
	}
	for _, key := range envelopeKnownFields {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

func formatEpochLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// sequenceLabel is used in extended transcripts for precise positions.
func sequenceLabel(fileIndex, sequence int) string {
	return strconv.Itoa(fileIndex) + ":" + strconv.Itoa(sequence)
}
