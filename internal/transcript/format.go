package transcript

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatOptions bound how much content each transcript flavor shows.
type FormatOptions struct {
	// PreviewChars caps text and tool summaries in simple transcripts.
	PreviewChars int
	// PayloadChars caps pretty-printed tool payloads in extended
	// transcripts.
	PayloadChars int
	// IncludeSystem keeps system-kind messages in simple transcripts.
	IncludeSystem bool
}

// DefaultFormatOptions mirror the shipped settings defaults.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		PreviewChars: 500,
		PayloadChars: 4000,
	}
}

func (o FormatOptions) withDefaults() FormatOptions {
	if o.PreviewChars <= 0 {
		o.PreviewChars = 500
	}
	if o.PayloadChars <= 0 {
		o.PayloadChars = 4000
	}
	return o
}

// Attribution labels who produced a message. The order of the rules is
// load-bearing and must not be rearranged.
func Attribution(g *Graph, msg Message) string {
	if msg.IsToolResult() {
		return "System"
	}
	if g.Type == SessionSubagent {
		switch msg.Kind {
		case KindUser:
			return "Claude (delegating)"
		case KindAssistant:
			return fmt.Sprintf("Subagent (%s)", g.AgentName)
		}
		return "System"
	}
	if msg.IsSidechain {
		switch msg.Kind {
		case KindUser:
			return "Claude (delegating)"
		case KindAssistant:
			return fmt.Sprintf("Subagent (%s)", g.AgentName)
		}
		return "System"
	}
	switch msg.Kind {
	case KindUser:
		if msg.InternalUser() {
			return "System"
		}
		return "User"
	case KindAssistant:
		return "Agent"
	default:
		return "System"
	}
}

// FormatSimple renders the main thread only, one attributed entry per
// message, content truncated to a preview.
func FormatSimple(g *Graph, flow []string, opts FormatOptions) string {
	opts = opts.withDefaults()
	var b strings.Builder
	b.WriteString("# Transcript\n\n")
	writeSessionHeader(&b, g)

	for _, id := range flow {
		msg := g.Messages[id]
		if msg.Kind == KindSystem && !opts.IncludeSystem {
			continue
		}
		writeEntry(&b, g, msg, opts, false)
	}
	return b.String()
}

// FormatExtended renders every branch in full with a structural summary
// up front.
func FormatExtended(g *Graph, branches []Branch, opts FormatOptions) string {
	opts = opts.withDefaults()
	var b strings.Builder
	b.WriteString("# Extended Transcript\n\n")
	writeSessionHeader(&b, g)

	sidechains := 0
	for _, br := range branches {
		if br.IsSidechain {
			sidechains++
		}
	}
	fmt.Fprintf(&b, "Branches: %d (%d sidechains), messages: %d\n\n", len(branches), sidechains, g.Len())
	for _, br := range branches {
		fmt.Fprintf(&b, "- `%s`: %d messages", br.ID, len(br.MessageIDs))
		if br.IsSidechain {
			b.WriteString(" (sidechain)")
		}
		if br.ParentBranchID != "" {
			fmt.Fprintf(&b, ", branched from `%s`", br.ParentBranchID)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, br := range branches {
		title := "Branch"
		if br.IsSidechain {
			title = "Sidechain"
		} else if i == 0 {
			title = "Main branch"
		}
		fmt.Fprintf(&b, "## %s `%s`\n\n", title, br.ID)
		if br.ParentBranchID != "" {
			fmt.Fprintf(&b, "Branched from `%s`.\n\n", br.ParentBranchID)
		}
		for _, id := range br.MessageIDs {
			writeEntry(&b, g, g.Messages[id], opts, true)
		}
	}
	return b.String()
}

// FormatBranch renders a single branch, used for sidechain exports.
func FormatBranch(g *Graph, br Branch, opts FormatOptions) string {
	opts = opts.withDefaults()
	var b strings.Builder
	fmt.Fprintf(&b, "# Sidechain `%s`\n\n", br.ID)
	if br.ParentBranchID != "" {
		fmt.Fprintf(&b, "Branched from `%s`.\n\n", br.ParentBranchID)
	}
	for _, id := range br.MessageIDs {
		writeEntry(&b, g, g.Messages[id], opts, true)
	}
	return b.String()
}

func writeSessionHeader(b *strings.Builder, g *Graph) {
	if sid := g.SessionID(); sid != "" {
		fmt.Fprintf(b, "Session: `%s`\n", sid)
	}
	fmt.Fprintf(b, "Type: %s", g.Type)
	if g.AgentName != "" {
		fmt.Fprintf(b, " (%s)", g.AgentName)
	}
	b.WriteString("\n\n")
}

func writeEntry(b *strings.Builder, g *Graph, msg Message, opts FormatOptions, extended bool) {
	fmt.Fprintf(b, "**%s**", Attribution(g, msg))
	if label := formatEpochLabel(msg.Timestamp); label != "" {
		fmt.Fprintf(b, " — %s", label)
	}
	if extended {
		fmt.Fprintf(b, " `[%s]`", sequenceLabel(msg.FileIndex, msg.Sequence))
	}
	b.WriteString("\n\n")

	body := renderContent(msg, opts, extended)
	if body != "" {
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

func renderContent(msg Message, opts FormatOptions, extended bool) string {
	switch c := msg.Content.(type) {
	case TextContent:
		return truncateText(strings.TrimSpace(c.Text), opts.PreviewChars, extended)
	case PartsContent:
		var lines []string
		for _, part := range c.Parts {
			if rendered := renderPart(part, opts, extended); rendered != "" {
				lines = append(lines, rendered)
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func renderPart(part Part, opts FormatOptions, extended bool) string {
	switch p := part.(type) {
	case TextPart:
		return truncateText(strings.TrimSpace(p.Text), opts.PreviewChars, extended)
	case ThinkingPart:
		if !extended {
			return ""
		}
		return "_thinking:_ " + truncateText(strings.TrimSpace(p.Text), opts.PayloadChars, false)
	case ToolUsePart:
		return renderToolUse(p, opts, extended)
	case ToolResultPart:
		return renderToolResult(p, opts, extended)
	case RawPart:
		if !extended {
			return ""
		}
		return codeBlock(prettyJSON(p.Value, opts.PayloadChars))
	}
	return ""
}

func renderToolUse(p ToolUsePart, opts FormatOptions, extended bool) string {
	if IsDelegationTool(p.Name) {
		if in, ok := ParseTaskInput(p.Input); ok {
			agent := in.SubagentType
			if agent == "" {
				agent = "agent"
			}
			task := in.Description
			if task == "" {
				task = in.Prompt
			}
			return fmt.Sprintf("→ **%s** delegates to **%s**: %s",
				p.Name, agent, truncate(strings.TrimSpace(task), opts.PreviewChars))
		}
	}
	if extended {
		return fmt.Sprintf("→ **%s**\n%s", p.Name, codeBlock(prettyJSON(p.Input, opts.PayloadChars)))
	}
	return fmt.Sprintf("→ **%s** %s", p.Name, toolArgSummary(p.Input, opts.PreviewChars))
}

func renderToolResult(p ToolResultPart, opts FormatOptions, extended bool) string {
	label := "← result"
	if p.IsError {
		label = "← error"
	}
	text := extractToolResultText(p.Payload)
	if extended {
		if text == "" {
			return label + "\n" + codeBlock(prettyJSON(p.Payload, opts.PayloadChars))
		}
		return label + ": " + truncate(text, opts.PayloadChars)
	}
	if text == "" {
		text = prettyJSON(p.Payload, opts.PreviewChars)
	}
	return label + ": " + truncate(text, opts.PreviewChars)
}

// toolArgSummary picks the most recognizable argument for a one-line
// summary: a command, a file path, or failing those the argument count.
func toolArgSummary(input json.RawMessage, max int) string {
	var args map[string]json.RawMessage
	if len(input) == 0 || json.Unmarshal(input, &args) != nil || len(args) == 0 {
		return "()"
	}
	for _, key := range []string{"command", "file_path", "path", "pattern", "url"} {
		raw, ok := args[key]
		if !ok {
			continue
		}
		var val string
		if json.Unmarshal(raw, &val) == nil && strings.TrimSpace(val) != "" {
			return "`" + truncate(strings.TrimSpace(val), max) + "`"
		}
	}
	return fmt.Sprintf("(%d args)", len(args))
}

func extractToolResultText(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(payload, &asString); err == nil {
		return strings.TrimSpace(asString)
	}
	var items []map[string]any
	if err := json.Unmarshal(payload, &items); err == nil {
		var parts []string
		for _, item := range items {
			if typ, _ := item["type"].(string); typ == "text" {
				if txt, ok := item["text"].(string); ok {
					parts = append(parts, txt)
				}
			}
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}
	return ""
}

func prettyJSON(raw json.RawMessage, max int) string {
	if len(raw) == 0 {
		return ""
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return truncate(string(raw), max)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return truncate(string(raw), max)
	}
	return truncate(strings.TrimSpace(string(data)), max)
}

func codeBlock(s string) string {
	if s == "" {
		return ""
	}
	return "```\n" + s + "\n```"
}

// truncateText leaves extended text alone and previews simple text.
func truncateText(s string, max int, extended bool) string {
	if extended {
		return s
	}
	return truncate(s, max)
}

// truncate caps a string by display width, appending an ellipsis when it
// was cut.
func truncate(s string, max int) string {
	if max <= 0 || runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}
