package transcript

import (
	"sort"
)

// SessionType labels how a session relates to its parent conversation.
type SessionType string

const (
	SessionRegular   SessionType = "regular"
	SessionSidechain SessionType = "sidechain"
	SessionSubagent  SessionType = "subagent"
)

// AssembleStats counts what happened during a merge.
type AssembleStats struct {
	Retained        int
	DuplicateIDs    int
	FilteredIDs     int
	DanglingParents int
}

// Graph is the assembled message DAG for one logical session.
type Graph struct {
	Messages map[string]Message
	Children map[string][]string
	Roots    []string

	Type      SessionType
	AgentName string

	Stats AssembleStats
}

// SessionID returns the id of the newest file's session, falling back to
// the first message that carries one.
func (g *Graph) SessionID() string {
	for _, root := range g.Roots {
		if sid := g.Messages[root].SessionID; sid != "" {
			return sid
		}
	}
	for _, msg := range g.Messages {
		if msg.SessionID != "" {
			return msg.SessionID
		}
	}
	return ""
}

// Len is the number of retained messages.
func (g *Graph) Len() int {
	return len(g.Messages)
}

// Assemble merges lineage-ordered file parses into a single graph.
//
// When the same uuid appears in more than one file the earliest file's
// copy wins; newer files re-send tail context from their predecessors.
// Continuity boundaries and compact summaries never enter the graph, and
// a message whose parent is missing or filtered becomes a root.
func Assemble(stores []*FileMessages) *Graph {
	g := &Graph{
		Messages: map[string]Message{},
		Children: map[string][]string{},
		Type:     SessionRegular,
	}

	filtered := map[string]bool{}
	for _, store := range stores {
		for id := range store.BoundaryIDs {
			filtered[id] = true
		}
		for id := range store.SummaryIDs {
			filtered[id] = true
		}
	}

	var order []string
	for fileIndex, store := range stores {
		for _, msg := range store.Messages {
			if filtered[msg.ID] {
				g.Stats.FilteredIDs++
				continue
			}
			if _, exists := g.Messages[msg.ID]; exists {
				g.Stats.DuplicateIDs++
				continue
			}
			msg.FileIndex = fileIndex
			g.Messages[msg.ID] = msg
			order = append(order, msg.ID)
		}
	}
	g.Stats.Retained = len(order)

	for _, id := range order {
		msg := g.Messages[id]
		parent := msg.ParentID
		if parent == "" {
			g.Roots = append(g.Roots, id)
			continue
		}
		if _, ok := g.Messages[parent]; !ok {
			// Truncated or filtered ancestry; the message still belongs
			// in the transcript, so it starts its own thread.
			g.Stats.DanglingParents++
			g.Roots = append(g.Roots, id)
			continue
		}
		g.Children[parent] = append(g.Children[parent], id)
	}

	for parent := range g.Children {
		g.sortSiblings(g.Children[parent])
	}
	g.sortSiblings(g.Roots)
	return g
}

// sortSiblings orders ids by file position then original append order.
func (g *Graph) sortSiblings(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := g.Messages[ids[i]], g.Messages[ids[j]]
		if a.FileIndex != b.FileIndex {
			return a.FileIndex < b.FileIndex
		}
		return a.Sequence < b.Sequence
	})
}
