package dependency

// Cycle is a back edge found during depth-first traversal, with the path that
// closes the loop. Path starts and ends at To.
type Cycle struct {
	From string
	To   string
	Path []string
}

// Cycles runs a depth-first traversal keeping a recursion stack and returns one
// Cycle per back edge (an edge into a node still on the stack). Roots are
// visited in insertion order.
func (g *Graph) Cycles() []Cycle {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string
	var out []Cycle

	var visit func(u string)
	visit = func(u string) {
		color[u] = grey
		stack = append(stack, u)
		for _, v := range g.succ[u] {
			switch color[v] {
			case white:
				visit(v)
			case grey:
				out = append(out, Cycle{From: u, To: v, Path: closePath(stack, v)})
			}
		}
		stack = stack[:len(stack)-1]
		color[u] = black
	}

	for _, id := range g.nodes {
		if color[id] == white {
			visit(id)
		}
	}
	return out
}

func closePath(stack []string, to string) []string {
	start := len(stack) - 1
	for start > 0 && stack[start] != to {
		start--
	}
	path := make([]string, 0, len(stack)-start+1)
	path = append(path, stack[start:]...)
	return append(path, to)
}

// LongestPaths returns, for every node, the length in edges of the longest
// path ending at it, which is the node's Kahn tier. It fails with ErrCycle on
// cyclic graphs.
func (g *Graph) LongestPaths() (map[string]int, error) {
	_, tiers, err := g.Resolve()
	if err != nil {
		return nil, err
	}
	depth := make(map[string]int, len(g.nodes))
	for k, tier := range tiers {
		for _, id := range tier {
			depth[id] = k
		}
	}
	return depth, nil
}
