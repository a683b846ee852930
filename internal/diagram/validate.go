package diagram

import (
	"fmt"
	"math"
)

// IssueType classifies a structural defect found by the normalizer.
type IssueType string

const (
	IssueMissingNode        IssueType = "missing_node"
	IssueMissingInterface   IssueType = "missing_interface"
	IssueReversedConnection IssueType = "reversed_connection"
	IssueDuplicateNodeID    IssueType = "duplicate_node_id"
)

// IssueSeverity is the severity of a normalization issue.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// AutoFix names the mechanical repair proposed for an issue.
type AutoFix string

const (
	FixRemove          AutoFix = "remove"
	FixReverse         AutoFix = "reverse"
	FixRename          AutoFix = "rename"
	FixRemoveDuplicate AutoFix = "remove_duplicate"
	FixOffsetPosition  AutoFix = "offset_position" // always combined with a rename
)

// DuplicateStrategy is how a duplicate-id group was classified.
type DuplicateStrategy string

const (
	StrategyDistinctComponents DuplicateStrategy = "different_positions"
	StrategyExactDuplicate     DuplicateStrategy = "exact_duplicate"
	StrategyOverlapping        DuplicateStrategy = "overlapping_components"
)

const (
	// PositionTolerance is the distance in pixels under which two nodes count as co-located.
	PositionTolerance = 10.0
	// DuplicateOffset is the per-index shift applied to overlapping duplicates.
	DuplicateOffset = 50.0
)

// ValidationIssue is a structural defect plus enough context to fix or explain it.
type ValidationIssue struct {
	Type     IssueType     `json:"type"`
	Severity IssueSeverity `json:"severity"`
	AutoFix  AutoFix       `json:"autoFix"`
	Message  string        `json:"message"`
	EdgeID   string        `json:"edgeId,omitempty"`
	NodeID   string        `json:"nodeId,omitempty"`
	Details  IssueDetails  `json:"details"`
}

// IssueDetails carries the payload needed to apply a fix mechanically.
type IssueDetails struct {
	EdgeIndex       *int              `json:"edgeIndex,omitempty"`
	Source          string            `json:"source,omitempty"`
	Target          string            `json:"target,omitempty"`
	SourceHandle    string            `json:"sourceHandle,omitempty"`
	TargetHandle    string            `json:"targetHandle,omitempty"`
	MissingNodes    []string          `json:"missingNodes,omitempty"`
	MissingHandles  []string          `json:"missingHandles,omitempty"`
	SourceDirection Direction         `json:"sourceDirection,omitempty"`
	TargetDirection Direction         `json:"targetDirection,omitempty"`
	Strategy        DuplicateStrategy `json:"strategy,omitempty"`
	Rename          bool              `json:"rename,omitempty"`
	Duplicates      []DuplicateNode   `json:"duplicates,omitempty"`
}

// DuplicateNode describes one occurrence of a duplicated node id.
type DuplicateNode struct {
	Index          int      `json:"index"`
	Position       Position `json:"position"`
	Label          string   `json:"label,omitempty"`
	Type           string   `json:"type,omitempty"`
	InterfaceCount int      `json:"interfaceCount"`
	Width          float64  `json:"width,omitempty"`
	Height         float64  `json:"height,omitempty"`
}

// ValidationResult is the normalizer verdict for one diagram.
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Issues  []ValidationIssue `json:"issues"`
}

// InterfaceLookup returns the interfaces a node exposes.
type InterfaceLookup func(n *Node) []Interface

// InlineInterfaces returns the interfaces carried in the node data itself.
func InlineInterfaces(n *Node) []Interface {
	if len(n.Data.Interfaces) > 0 {
		return n.Data.Interfaces
	}
	if n.Data.Component != nil {
		return n.Data.Component.Interfaces
	}
	return nil
}

// Normalizer detects and repairs structural corruption in a diagram.
type Normalizer struct {
	interfaces InterfaceLookup
}

// NewNormalizer returns a normalizer that resolves node interfaces with lookup.
// A nil lookup uses InlineInterfaces.
func NewNormalizer(lookup InterfaceLookup) *Normalizer {
	if lookup == nil {
		lookup = InlineInterfaces
	}
	return &Normalizer{interfaces: lookup}
}

// Validate runs the default normalizer.
func Validate(d *Diagram) ValidationResult {
	return NewNormalizer(nil).Validate(d)
}

// Validate scans the diagram for dangling edges, dangling interfaces, reversed
// master/slave connections and duplicate node ids. It never fails: an empty
// diagram is simply valid.
func (n *Normalizer) Validate(d *Diagram) ValidationResult {
	res := ValidationResult{IsValid: true, Issues: []ValidationIssue{}}
	if d == nil || (len(d.Nodes) == 0 && len(d.Edges) == 0) {
		return res
	}

	idx := n.indexInterfaces(d.Nodes)
	res.Issues = append(res.Issues, n.duplicateIssues(d.Nodes)...)

	for i := range d.Edges {
		if issue, ok := n.edgeIssue(d, i, idx); ok {
			res.Issues = append(res.Issues, issue)
		}
	}
	res.IsValid = len(res.Issues) == 0
	return res
}

// nodeInterfaces maps node id -> interface id -> direction. Duplicated ids share
// one entry holding the union of their interfaces.
type nodeInterfaces map[string]map[string]Direction

func (n *Normalizer) indexInterfaces(nodes []Node) nodeInterfaces {
	idx := make(nodeInterfaces, len(nodes))
	for i := range nodes {
		node := &nodes[i]
		set, ok := idx[node.ID]
		if !ok {
			set = make(map[string]Direction)
			idx[node.ID] = set
		}
		for _, iface := range n.interfaces(node) {
			if _, seen := set[iface.ID]; !seen {
				set[iface.ID] = iface.Direction
			}
		}
	}
	return idx
}

func (n *Normalizer) edgeIssue(d *Diagram, i int, idx nodeInterfaces) (ValidationIssue, bool) {
	e := d.Edges[i]
	edgeIndex := i
	details := IssueDetails{
		EdgeIndex:    &edgeIndex,
		Source:       e.Source,
		Target:       e.Target,
		SourceHandle: e.SourceHandle,
		TargetHandle: e.TargetHandle,
	}

	srcIfaces, srcOK := idx[e.Source]
	tgtIfaces, tgtOK := idx[e.Target]
	if !srcOK || !tgtOK {
		if !srcOK {
			details.MissingNodes = append(details.MissingNodes, e.Source)
		}
		if !tgtOK {
			details.MissingNodes = append(details.MissingNodes, e.Target)
		}
		return ValidationIssue{
			Type: IssueMissingNode, Severity: SeverityError, AutoFix: FixRemove, EdgeID: e.ID,
			Message: fmt.Sprintf("edge %q references missing node(s) %v", e.ID, details.MissingNodes),
			Details: details,
		}, true
	}

	srcDir, srcHas := srcIfaces[e.SourceHandle]
	tgtDir, tgtHas := tgtIfaces[e.TargetHandle]
	if e.SourceHandle != "" && !srcHas {
		details.MissingHandles = append(details.MissingHandles, e.Source+"."+e.SourceHandle)
	}
	if e.TargetHandle != "" && !tgtHas {
		details.MissingHandles = append(details.MissingHandles, e.Target+"."+e.TargetHandle)
	}
	if len(details.MissingHandles) > 0 {
		return ValidationIssue{
			Type: IssueMissingInterface, Severity: SeverityError, AutoFix: FixRemove, EdgeID: e.ID,
			Message: fmt.Sprintf("edge %q references missing interface(s) %v", e.ID, details.MissingHandles),
			Details: details,
		}, true
	}

	if srcHas && tgtHas && srcDir.Normalize() == DirSlave && tgtDir.Normalize() == DirMaster {
		details.SourceDirection = srcDir
		details.TargetDirection = tgtDir
		return ValidationIssue{
			Type: IssueReversedConnection, Severity: SeverityWarning, AutoFix: FixReverse, EdgeID: e.ID,
			Message: fmt.Sprintf("edge %q runs from slave %s.%s to master %s.%s", e.ID,
				e.Source, e.SourceHandle, e.Target, e.TargetHandle),
			Details: details,
		}, true
	}
	return ValidationIssue{}, false
}

type fingerprint struct {
	Label          string
	Type           string
	InterfaceCount int
	Width          float64
	Height         float64
}

func (n *Normalizer) duplicateIssues(nodes []Node) []ValidationIssue {
	groups := make(map[string][]int)
	var order []string
	for i := range nodes {
		id := nodes[i].ID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}

	var issues []ValidationIssue
	for _, id := range order {
		idxs := groups[id]
		if len(idxs) < 2 {
			continue
		}
		dups := make([]DuplicateNode, len(idxs))
		prints := make([]fingerprint, len(idxs))
		for k, i := range idxs {
			node := &nodes[i]
			count := len(n.interfaces(node))
			dups[k] = DuplicateNode{
				Index: i, Position: node.Position, Label: node.Data.Label, Type: node.Type,
				InterfaceCount: count, Width: node.Width, Height: node.Height,
			}
			prints[k] = fingerprint{node.Data.Label, node.Type, count, node.Width, node.Height}
		}

		strategy, fix := classifyDuplicates(dups, prints)
		msg := fmt.Sprintf("node id %q is used by %d nodes", id, len(idxs))
		switch strategy {
		case StrategyDistinctComponents:
			msg += " at different positions; later occurrences will be renamed"
		case StrategyExactDuplicate:
			msg += " with identical properties at the same position; extra copies will be removed"
		case StrategyOverlapping:
			msg += " with different properties at the same position; they will be offset and renamed"
		}
		issues = append(issues, ValidationIssue{
			Type: IssueDuplicateNodeID, Severity: SeverityError, AutoFix: fix, NodeID: id,
			Message: msg,
			Details: IssueDetails{
				Strategy:   strategy,
				Rename:     fix == FixRename || fix == FixOffsetPosition,
				Duplicates: dups,
			},
		})
	}
	return issues
}

// classifyDuplicates resolves a duplicate group to exactly one strategy.
func classifyDuplicates(dups []DuplicateNode, prints []fingerprint) (DuplicateStrategy, AutoFix) {
	first := dups[0].Position
	for _, d := range dups[1:] {
		if math.Abs(d.Position.X-first.X) > PositionTolerance || math.Abs(d.Position.Y-first.Y) > PositionTolerance {
			return StrategyDistinctComponents, FixRename
		}
	}
	for _, p := range prints[1:] {
		if p != prints[0] {
			return StrategyOverlapping, FixOffsetPosition
		}
	}
	return StrategyExactDuplicate, FixRemoveDuplicate
}
