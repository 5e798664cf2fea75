package transcript

// Branch is a maximal path through the graph starting at a root or at a
// divergence point. Alternate branches do not repeat the prefix they
// share with their parent branch; the parent branch id links them back.
type Branch struct {
	ID             string
	MessageIDs     []string
	IsSidechain    bool
	ParentBranchID string
	ChildBranchIDs []string
}

// LinearFlow returns the canonical main thread: starting at the earliest
// root, always follow the earliest-authored child. Later siblings are
// retries or edits and belong to alternate branches.
//
// The walk holds a visited set, so even a log with an artificial parent
// cycle terminates within the message count.
func LinearFlow(g *Graph) []string {
	if len(g.Roots) == 0 {
		return nil
	}
	var flow []string
	visited := map[string]bool{}
	current := g.Roots[0]
	for current != "" && !visited[current] {
		visited[current] = true
		flow = append(flow, current)
		children := g.Children[current]
		if len(children) == 0 {
			break
		}
		current = children[0]
	}
	return flow
}

// Branches enumerates every maximal path. The first branch is the main
// thread; additional roots and later siblings open their own branches,
// tagged sidechain when their starting message carries the marker.
func Branches(g *Graph) []Branch {
	if len(g.Roots) == 0 {
		return nil
	}

	type start struct {
		id       string
		parentID string
	}

	queue := make([]start, 0, len(g.Roots))
	for _, root := range g.Roots {
		queue = append(queue, start{id: root})
	}

	var branches []Branch
	index := map[string]int{}
	visited := map[string]bool{}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next.id] {
			continue
		}

		branch := Branch{
			ID:             branchID(g, next.id),
			ParentBranchID: next.parentID,
			IsSidechain:    g.Messages[next.id].IsSidechain,
		}

		current := next.id
		for current != "" && !visited[current] {
			visited[current] = true
			branch.MessageIDs = append(branch.MessageIDs, current)
			children := g.Children[current]
			if len(children) == 0 {
				break
			}
			for _, alt := range children[1:] {
				queue = append(queue, start{id: alt, parentID: branch.ID})
			}
			current = children[0]
		}

		index[branch.ID] = len(branches)
		branches = append(branches, branch)
	}

	for i := range branches {
		parent := branches[i].ParentBranchID
		if parent == "" {
			continue
		}
		if j, ok := index[parent]; ok {
			branches[j].ChildBranchIDs = append(branches[j].ChildBranchIDs, branches[i].ID)
		}
	}
	return branches
}

// branchID derives a stable identifier from the branch's first message.
func branchID(g *Graph, startID string) string {
	if g.Messages[startID].IsSidechain {
		return "sidechain-" + startID
	}
	return startID
}

// CountBranches is the total number of enumerated branches.
func CountBranches(g *Graph) int {
	return len(Branches(g))
}

// CountSidechains is the number of sidechain branches.
func CountSidechains(g *Graph) int {
	n := 0
	for _, b := range Branches(g) {
		if b.IsSidechain {
			n++
		}
	}
	return n
}

// SidechainBranches filters the enumeration down to sidechains.
func SidechainBranches(g *Graph) []Branch {
	var out []Branch
	for _, b := range Branches(g) {
		if b.IsSidechain {
			out = append(out, b)
		}
	}
	return out
}
