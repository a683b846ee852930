package dependency

import (
	"errors"
)

// ErrCycle is returned when the dependency graph contains a cycle.
var ErrCycle = errors.New("dependency cycle detected")

// Graph is a directed graph over string ids. Node and edge insertion order is
// kept so every traversal is deterministic.
type Graph struct {
	nodes []string
	known map[string]bool
	succ  map[string][]string
}

// New returns a graph containing the given nodes.
func New(nodes ...string) *Graph {
	g := &Graph{known: make(map[string]bool, len(nodes)), succ: make(map[string][]string)}
	for _, n := range nodes {
		g.AddNode(n)
	}
	return g
}

// AddNode adds a node if it is not present yet.
func (g *Graph) AddNode(id string) {
	if g.known[id] {
		return
	}
	g.known[id] = true
	g.nodes = append(g.nodes, id)
}

// AddEdge adds from -> to, adding either endpoint if missing. Parallel edges collapse.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	for _, v := range g.succ[from] {
		if v == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []string { return g.nodes }

// Successors returns the direct successors of id.
func (g *Graph) Successors(id string) []string { return g.succ[id] }

// Resolve returns:
// - ordered: node ids in topological order (predecessors first)
// - tiers: node ids grouped by depth (tier 0 = no predecessors, tier k = longest
//   path from a root is k edges)
func (g *Graph) Resolve() (ordered []string, tiers [][]string, err error) {
	if len(g.nodes) == 0 {
		return nil, nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, u := range g.nodes {
		for _, v := range g.succ[u] {
			if u != v {
				inDegree[v]++
			}
		}
	}

	var queue []string
	for _, id := range g.nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	ordered = make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		tier := make([]string, len(queue))
		copy(tier, queue)
		tiers = append(tiers, tier)
		var nextQueue []string
		for _, u := range queue {
			ordered = append(ordered, u)
			for _, v := range g.succ[u] {
				if v == u {
					continue
				}
				inDegree[v]--
				if inDegree[v] == 0 {
					nextQueue = append(nextQueue, v)
				}
			}
		}
		queue = nextQueue
	}

	if len(ordered) != len(g.nodes) {
		return nil, nil, ErrCycle
	}
	for _, u := range g.nodes {
		for _, v := range g.succ[u] {
			if u == v {
				return nil, nil, ErrCycle
			}
		}
	}
	return ordered, tiers, nil
}
