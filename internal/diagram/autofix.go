package diagram

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var edgeNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("soc-pilot/drc/edge"))

// EdgeID derives a deterministic edge id from its endpoints.
func EdgeID(source, sourceHandle, target, targetHandle string) string {
	key := strings.Join([]string{source, sourceHandle, target, targetHandle}, "\x00")
	return "e-" + uuid.NewSHA1(edgeNamespace, []byte(key)).String()
}

// ApplyAutoFixes runs the default normalizer's fixes.
func ApplyAutoFixes(d *Diagram, issues []ValidationIssue) *Diagram {
	return NewNormalizer(nil).ApplyAutoFixes(d, issues)
}

// Normalize validates d and, if needed, returns a fixed deep copy.
func (n *Normalizer) Normalize(d *Diagram) (*Diagram, ValidationResult) {
	res := n.Validate(d)
	if res.IsValid {
		return d.Clone(), res
	}
	return n.ApplyAutoFixes(d, res.Issues), res
}

// ApplyAutoFixes returns a fixed deep copy of d. Node fixes run first and build
// the id remap table, then edge references are rewritten, then flagged edges are
// removed or reversed. A final sweep drops any edge that still dangles.
func (n *Normalizer) ApplyAutoFixes(d *Diagram, issues []ValidationIssue) *Diagram {
	out := d.Clone()
	if out == nil {
		return nil
	}

	taken := make(map[string]bool, len(out.Nodes))
	for i := range out.Nodes {
		taken[out.Nodes[i].ID] = true
	}

	// old id -> final id per occurrence; "" marks a removed occurrence
	remap := make(map[string][]string)
	removeNode := make(map[int]bool)

	for _, issue := range issues {
		if issue.Type != IssueDuplicateNodeID {
			continue
		}
		idxs := duplicateIndexes(out.Nodes, issue)
		if len(idxs) < 2 {
			continue
		}
		occ := make([]string, len(idxs))
		occ[0] = issue.NodeID
		for k := 1; k < len(idxs); k++ {
			node := &out.Nodes[idxs[k]]
			switch issue.AutoFix {
			case FixRemoveDuplicate:
				removeNode[idxs[k]] = true
				occ[k] = ""
			case FixOffsetPosition:
				node.Position.X += DuplicateOffset * float64(k)
				node.Position.Y += DuplicateOffset * float64(k)
				node.ID = uniqueID(issue.NodeID, k, taken)
				occ[k] = node.ID
			default:
				node.ID = uniqueID(issue.NodeID, k, taken)
				occ[k] = node.ID
			}
		}
		remap[issue.NodeID] = occ
	}

	if len(remap) > 0 {
		byID := n.handleSets(out.Nodes, removeNode)
		for i := range out.Edges {
			e := &out.Edges[i]
			if occ, ok := remap[e.Source]; ok {
				e.Source = pickOccurrence(occ, e.SourceHandle, byID)
			}
			if occ, ok := remap[e.Target]; ok {
				e.Target = pickOccurrence(occ, e.TargetHandle, byID)
			}
		}
	}

	dropEdge := make(map[int]bool)
	for _, issue := range issues {
		switch issue.Type {
		case IssueMissingNode, IssueMissingInterface:
			if i, ok := edgeIndex(out.Edges, issue); ok && issue.AutoFix == FixRemove {
				dropEdge[i] = true
			}
		case IssueReversedConnection:
			if i, ok := edgeIndex(out.Edges, issue); ok && issue.AutoFix == FixReverse {
				reverseEdge(&out.Edges[i])
			}
		}
	}

	if len(removeNode) > 0 {
		nodes := make([]Node, 0, len(out.Nodes)-len(removeNode))
		for i := range out.Nodes {
			if !removeNode[i] {
				nodes = append(nodes, out.Nodes[i])
			}
		}
		out.Nodes = nodes
	}

	sets := n.handleSets(out.Nodes, nil)
	edges := make([]Edge, 0, len(out.Edges))
	for i, e := range out.Edges {
		if dropEdge[i] || dangling(e, sets) {
			continue
		}
		edges = append(edges, e)
	}
	if out.Edges != nil {
		out.Edges = edges
	}
	return out
}

func (n *Normalizer) handleSets(nodes []Node, skip map[int]bool) map[string]map[string]bool {
	sets := make(map[string]map[string]bool, len(nodes))
	for i := range nodes {
		if skip[i] {
			continue
		}
		set, ok := sets[nodes[i].ID]
		if !ok {
			set = make(map[string]bool)
			sets[nodes[i].ID] = set
		}
		for _, iface := range n.interfaces(&nodes[i]) {
			set[iface.ID] = true
		}
	}
	return sets
}

func dangling(e Edge, sets map[string]map[string]bool) bool {
	src, ok := sets[e.Source]
	if !ok {
		return true
	}
	tgt, ok := sets[e.Target]
	if !ok {
		return true
	}
	if e.SourceHandle != "" && !src[e.SourceHandle] {
		return true
	}
	return e.TargetHandle != "" && !tgt[e.TargetHandle]
}

// pickOccurrence keeps an edge on the first occurrence unless only a later
// duplicate exposes the referenced handle.
func pickOccurrence(occ []string, handle string, sets map[string]map[string]bool) string {
	if handle == "" || sets[occ[0]][handle] {
		return occ[0]
	}
	for _, id := range occ[1:] {
		if id != "" && sets[id][handle] {
			return id
		}
	}
	return occ[0]
}

func duplicateIndexes(nodes []Node, issue ValidationIssue) []int {
	idxs := make([]int, 0, len(issue.Details.Duplicates))
	for _, dup := range issue.Details.Duplicates {
		if dup.Index < 0 || dup.Index >= len(nodes) || nodes[dup.Index].ID != issue.NodeID {
			idxs = idxs[:0]
			break
		}
		idxs = append(idxs, dup.Index)
	}
	if len(idxs) > 0 {
		return idxs
	}
	for i := range nodes {
		if nodes[i].ID == issue.NodeID {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func edgeIndex(edges []Edge, issue ValidationIssue) (int, bool) {
	if p := issue.Details.EdgeIndex; p != nil && *p >= 0 && *p < len(edges) && edges[*p].ID == issue.EdgeID {
		return *p, true
	}
	for i := range edges {
		if edges[i].ID == issue.EdgeID {
			return i, true
		}
	}
	return 0, false
}

func reverseEdge(e *Edge) {
	encodesDirection := e.ID != "" && strings.Contains(e.ID, e.Source) && strings.Contains(e.ID, e.Target)
	e.Source, e.Target = e.Target, e.Source
	e.SourceHandle, e.TargetHandle = e.TargetHandle, e.SourceHandle
	if encodesDirection {
		e.ID = EdgeID(e.Source, e.SourceHandle, e.Target, e.TargetHandle)
	}
}

func uniqueID(base string, k int, taken map[string]bool) string {
	for {
		cand := fmt.Sprintf("%s-%d", base, k)
		if !taken[cand] {
			taken[cand] = true
			return cand
		}
		k++
	}
}
