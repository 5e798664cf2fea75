package transcript

import "strings"

// UnknownAgentName is used when a sidechain session never names its agent.
const UnknownAgentName = "Unknown Agent"

// Classify assigns the session type and agent name on a graph.
//
// Sidechain markers are authoritative and checked first: the legacy
// subagent mapping is heuristic and could misfire on newer sessions that
// happen to match old patterns.
func Classify(g *Graph, mapper *SubagentMapper) {
	if hasSidechainMarker(g) {
		g.Type = SessionSidechain
		g.AgentName = sidechainAgentName(g)
		return
	}
	if info, ok := mapper.Info(g.SessionID()); ok {
		g.Type = SessionSubagent
		g.AgentName = info.AgentType
		if g.AgentName == "" {
			g.AgentName = UnknownAgentName
		}
		return
	}
	g.Type = SessionRegular
	g.AgentName = ""
}

func hasSidechainMarker(g *Graph) bool {
	for _, msg := range g.Messages {
		if msg.IsSidechain {
			return true
		}
	}
	return false
}

// sidechainAgentName reads the declared target agent from the first
// delegation tool call, in graph order.
func sidechainAgentName(g *Graph) string {
	for _, id := range graphOrder(g) {
		for _, use := range g.Messages[id].ToolUses() {
			if !IsDelegationTool(use.Name) {
				continue
			}
			if in, ok := ParseTaskInput(use.Input); ok {
				if name := strings.TrimSpace(in.SubagentType); name != "" {
					return name
				}
			}
		}
	}
	return UnknownAgentName
}

// graphOrder lists every message id in merge order (file, then sequence).
func graphOrder(g *Graph) []string {
	ids := make([]string, 0, len(g.Messages))
	for id := range g.Messages {
		ids = append(ids, id)
	}
	g.sortSiblings(ids)
	return ids
}
