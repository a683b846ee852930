package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/graph"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

func master(id, bus string, width int) diagram.Interface {
	return diagram.Interface{ID: id, BusType: bus, Direction: diagram.DirMaster, DataWidth: width}
}

func slave(id, bus string, width int) diagram.Interface {
	return diagram.Interface{ID: id, BusType: bus, Direction: diagram.DirSlave, DataWidth: width}
}

func node(id string, ifaces ...diagram.Interface) diagram.Node {
	return diagram.Node{ID: id, Type: "block", Data: diagram.NodeData{Interfaces: ifaces}}
}

func edge(id, src, sh, tgt, th string) diagram.Edge {
	return diagram.Edge{ID: id, Source: src, SourceHandle: sh, Target: tgt, TargetHandle: th}
}

// evaluate runs the whole battery in catalog order against d.
func evaluate(d *diagram.Diagram, comps []diagram.ArchitecturalComponent, opts registry.Options) []result.Finding {
	ctx := registry.NewContext(graph.Build(d, comps), opts)
	var out []result.Finding
	for _, r := range All() {
		out = append(out, r.Check(ctx)...)
	}
	return out
}

func byRule(fs []result.Finding, id string) []result.Finding {
	var out []result.Finding
	for _, f := range fs {
		if f.RuleID == id {
			out = append(out, f)
		}
	}
	return out
}

func TestCatalog_IsComplete(t *testing.T) {
	reg := registry.New()
	Register(reg)
	metas := reg.Catalog()
	require.Len(t, metas, 26)
	assert.Equal(t, "DRC-CONN-001", metas[0].ID)
	assert.Equal(t, "DRC-NAME-002", metas[len(metas)-1].ID)
	for _, m := range metas {
		assert.NotEmpty(t, m.Name, m.ID)
		assert.NotEmpty(t, m.Severity, m.ID)
		assert.NotEmpty(t, m.Category, m.ID)
	}
}

func TestRoleMatching(t *testing.T) {
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			node("a", master("m0", "AXI4", 32)),
			node("b", master("m0", "AXI4", 64)),
			node("c", diagram.Interface{ID: "ms", BusType: "AXI4", Direction: "master & slave", DataWidth: 32}),
			node("d", slave("s0", "AXI4", 32), slave("s1", "AXI4", 32)),
		},
		Edges: []diagram.Edge{
			edge("mm", "a", "m0", "b", "m0"),
			edge("ss", "d", "s0", "d", "s1"),
			edge("ok", "c", "ms", "d", "s0"),
		},
	}
	fs := evaluate(d, nil, registry.DefaultOptions())

	roles := byRule(fs, "DRC-CONN-001")
	require.Len(t, roles, 2)
	assert.Equal(t, "mm", roles[0].EdgeID)
	assert.Equal(t, "ss", roles[1].EdgeID)
	assert.Equal(t, result.Critical, roles[0].Severity)
	assert.Empty(t, byRule(fs, "DRC-AXI-001"), "broken edges are skipped by width rules")
}

func TestBusTypeMatching(t *testing.T) {
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			node("cpu", master("m0", "AXI4", 32), master("m1", "AXI4", 32)),
			node("uart", slave("s0", "APB", 32)),
			node("acc", slave("s0", "Custom", 32)),
		},
		Edges: []diagram.Edge{
			edge("e1", "cpu", "m0", "uart", "s0"),
			edge("e2", "cpu", "m1", "acc", "s0"),
		},
	}
	fs := byRule(evaluate(d, nil, registry.DefaultOptions()), "DRC-CONN-002")
	require.Len(t, fs, 1)
	assert.Equal(t, "e1", fs[0].EdgeID)
	assert.Equal(t, []string{"cpu", "uart"}, fs[0].AffectedComponents)
}

func TestExistence(t *testing.T) {
	d := &diagram.Diagram{
		Nodes: []diagram.Node{node("cpu", master("m0", "AXI4", 32))},
		Edges: []diagram.Edge{
			edge("ghost", "cpu", "m0", "nobody", "s0"),
			edge("badif", "cpu", "m9", "cpu", "m0"),
		},
	}
	fs := byRule(evaluate(d, nil, registry.DefaultOptions()), "DRC-CONN-003")
	require.Len(t, fs, 2)
	assert.Contains(t, fs[0].Message, "component nobody")
	assert.Contains(t, fs[1].Message, "interface cpu.m9")
}

func TestUnconnectedInterfaces(t *testing.T) {
	opt := master("dbg", "AXI4", 32)
	opt.Optional = true
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			node("cpu", master("m0", "AXI4", 32), opt),
			node("mem", slave("s0", "AXI4", 32), slave("s1", "AXI4", 32)),
		},
		Edges: []diagram.Edge{edge("e", "cpu", "m0", "mem", "s0")},
	}

	fs := evaluate(d, nil, registry.DefaultOptions())
	assert.Empty(t, byRule(fs, "DRC-CONN-004"), "optional ports are skipped by default")
	slaves := byRule(fs, "DRC-CONN-006")
	require.Len(t, slaves, 1)
	assert.Equal(t, result.Info, slaves[0].Severity)
	assert.Equal(t, []string{"mem"}, slaves[0].AffectedComponents)

	opts := registry.DefaultOptions()
	opts.CheckOptionalPorts = true
	masters := byRule(evaluate(d, nil, opts), "DRC-CONN-004")
	require.Len(t, masters, 1)
	assert.Equal(t, result.Warning, masters[0].Severity)
}

func TestMultipleMastersOnOneSlave(t *testing.T) {
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			node("cpu0", master("m0", "AXI4", 32)),
			node("cpu1", master("m0", "AXI4", 32)),
			node("mem", slave("s0", "AXI4", 32)),
		},
		Edges: []diagram.Edge{
			edge("e0", "cpu0", "m0", "mem", "s0"),
			edge("e1", "cpu1", "m0", "mem", "s0"),
		},
	}
	fs := byRule(evaluate(d, nil, registry.DefaultOptions()), "DRC-CONN-005")
	require.Len(t, fs, 1)
	assert.Equal(t, []string{"mem", "cpu0", "cpu1"}, fs[0].AffectedComponents)
	assert.Equal(t, result.Critical, fs[0].Severity)
}

func TestSignalDirection(t *testing.T) {
	out := func(id string) diagram.Interface { return diagram.Interface{ID: id, Direction: diagram.DirOutput} }
	in := func(id string) diagram.Interface { return diagram.Interface{ID: id, Direction: diagram.DirInput} }
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			node("a", out("irq"), out("irq2"), master("m0", "AXI4", 32)),
			node("b", in("irq"), out("o")),
		},
		Edges: []diagram.Edge{
			edge("good", "a", "irq", "b", "irq"),
			edge("twodrivers", "a", "irq2", "b", "o"),
			edge("mixed", "a", "m0", "b", "irq"),
		},
	}
	fs := byRule(evaluate(d, nil, registry.DefaultOptions()), "DRC-CONN-007")
	require.Len(t, fs, 2)
	assert.Equal(t, "twodrivers", fs[0].EdgeID)
	assert.Equal(t, "mixed", fs[1].EdgeID)
}

func TestAXIWidths(t *testing.T) {
	m := diagram.Interface{ID: "m0", BusType: "AXI4", Direction: diagram.DirMaster, DataWidth: 64, AddrWidth: 32, IDWidth: 4}
	s := diagram.Interface{ID: "s0", BusType: "AXI4", Direction: diagram.DirSlave, DataWidth: 128, AddrWidth: 40, IDWidth: 6}
	lm := diagram.Interface{ID: "m1", BusType: "AXI4-Lite", Direction: diagram.DirMaster, DataWidth: 32, IDWidth: 1}
	ls := diagram.Interface{ID: "s1", BusType: "AXI4-Lite", Direction: diagram.DirSlave, DataWidth: 32, IDWidth: 2}
	d := &diagram.Diagram{
		Nodes: []diagram.Node{node("cpu", m, lm), node("mem", s, ls)},
		Edges: []diagram.Edge{
			edge("full", "cpu", "m0", "mem", "s0"),
			edge("lite", "cpu", "m1", "mem", "s1"),
		},
	}
	fs := evaluate(d, nil, registry.DefaultOptions())

	data := byRule(fs, "DRC-AXI-001")
	require.Len(t, data, 1)
	assert.Contains(t, data[0].Message, "64 bits")
	assert.Contains(t, data[0].Message, "128 bits")

	ids := byRule(fs, "DRC-AXI-002")
	require.Len(t, ids, 1, "AXI4-Lite carries no IDs")
	assert.Equal(t, "full", ids[0].EdgeID)

	addr := byRule(fs, "DRC-AXI-003")
	require.Len(t, addr, 1)
	assert.Equal(t, result.Warning, addr[0].Severity)
}

func TestClockRules(t *testing.T) {
	clocked := func(id, domain string, mhz float64, ifaces ...diagram.Interface) diagram.Node {
		n := node(id, ifaces...)
		n.Data.ClockFrequency = mhz
		n.Data.ClockDomain = domain
		return n
	}
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			clocked("cpu", "core", 1000, master("m0", "AXI4", 64), master("m1", "AXI4", 64)),
			clocked("mem", "core", 800, slave("s0", "AXI4", 64)),
			clocked("per", "periph", 100, slave("s0", "AXI4", 64)),
		},
		Edges: []diagram.Edge{
			edge("same", "cpu", "m0", "mem", "s0"),
			edge("cross", "cpu", "m1", "per", "s0"),
		},
	}
	fs := evaluate(d, nil, registry.DefaultOptions())

	freq := byRule(fs, "DRC-AXI-004")
	require.Len(t, freq, 1)
	assert.Equal(t, "same", freq[0].EdgeID)
	assert.Equal(t, result.Clock, freq[0].Category)

	cdc := byRule(fs, "DRC-PERF-002")
	require.Len(t, cdc, 1)
	assert.Equal(t, "cross", cdc[0].EdgeID)
	assert.Equal(t, result.Info, cdc[0].Severity)
}

func TestAddressRules(t *testing.T) {
	mappedNode := func(id, base, size string) diagram.Node {
		n := node(id, slave("s0", "AXI4", 32))
		n.Data.AddressMapping = &diagram.AddressMapping{BaseAddress: diagram.Quantity(base), AddressSpace: diagram.Quantity(size)}
		return n
	}
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			node("cpu", master("m0", "AXI4", 32), master("m1", "AXI4", 32), master("m2", "AXI4", 32), master("m3", "AXI4", 32)),
			mappedNode("boot", "0x0", "0x2000"),
			mappedNode("uart", "0x10000010", "0x100"),
			mappedNode("ok", "0x20000000", "4KB"),
			node("nomap", slave("s0", "AXI4", 32)),
		},
		Edges: []diagram.Edge{
			edge("e0", "cpu", "m0", "boot", "s0"),
			edge("e1", "cpu", "m1", "uart", "s0"),
			edge("e2", "cpu", "m2", "ok", "s0"),
			edge("e3", "cpu", "m3", "nomap", "s0"),
		},
	}
	fs := evaluate(d, nil, registry.DefaultOptions())

	assert.Empty(t, byRule(fs, "DRC-ADDR-001"))

	align := byRule(fs, "DRC-ADDR-002")
	require.Len(t, align, 1)
	assert.Equal(t, []string{"uart"}, align[0].AffectedComponents)
	assert.Contains(t, align[0].SuggestedFix, "0x10001000")

	cover := byRule(fs, "DRC-ADDR-003")
	require.Len(t, cover, 1)
	assert.Equal(t, []string{"nomap"}, cover[0].AffectedComponents)

	reserved := byRule(fs, "DRC-ADDR-004")
	require.Len(t, reserved, 1)
	assert.Equal(t, []string{"boot"}, reserved[0].AffectedComponents)
}

func TestTopologyRules(t *testing.T) {
	xbar := diagram.Node{ID: "xbar", Type: "axi-interconnect", Data: diagram.NodeData{Interfaces: []diagram.Interface{
		slave("s0", "AXI4", 32), slave("s1", "AXI4", 32), slave("s2", "AXI4", 32),
	}}}
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			node("cpu0", master("m0", "AXI4", 32)),
			node("cpu1", master("m0", "AXI4", 32)),
			node("cpu2", master("m0", "AXI4", 32)),
			xbar,
			node("lonely"),
		},
		Edges: []diagram.Edge{
			edge("e0", "cpu0", "m0", "xbar", "s0"),
			edge("e1", "cpu1", "m0", "xbar", "s1"),
			edge("e2", "cpu2", "m0", "xbar", "s2"),
		},
	}
	opts := registry.DefaultOptions()
	opts.MaxFanOut = 2
	fs := evaluate(d, nil, opts)

	iso := byRule(fs, "DRC-TOPO-002")
	require.Len(t, iso, 1)
	assert.Equal(t, []string{"lonely"}, iso[0].AffectedComponents)

	fan := byRule(fs, "DRC-TOPO-003")
	require.Len(t, fan, 1)
	assert.Equal(t, []string{"xbar", "cpu0", "cpu1", "cpu2"}, fan[0].AffectedComponents)

	assert.Empty(t, byRule(fs, "DRC-TOPO-001"))
}

func TestBandwidthBottleneck(t *testing.T) {
	cpu := func(id string) diagram.Node {
		n := node(id, master("m0", "AXI4", 64))
		n.Data.ClockFrequency = 1000
		return n
	}
	mem := node("mem", slave("s0", "AXI4", 64), slave("s1", "AXI4", 64))
	mem.Data.Bandwidth = 10000
	d := &diagram.Diagram{
		Nodes: []diagram.Node{cpu("cpu0"), cpu("cpu1"), mem},
		Edges: []diagram.Edge{
			edge("e0", "cpu0", "m0", "mem", "s0"),
			edge("e1", "cpu1", "m0", "mem", "s1"),
		},
	}
	fs := byRule(evaluate(d, nil, registry.DefaultOptions()), "DRC-PERF-001")
	require.Len(t, fs, 1)
	assert.Equal(t, []string{"mem", "cpu0", "cpu1"}, fs[0].AffectedComponents)
	assert.Contains(t, fs[0].Message, "16000 MB/s")
}

func TestLongPath(t *testing.T) {
	d := &diagram.Diagram{}
	for i := 0; i <= 6; i++ {
		d.Nodes = append(d.Nodes, node(string(rune('a'+i)), master("m0", "AXI4", 32), slave("s0", "AXI4", 32)))
	}
	for i := 0; i < 6; i++ {
		src, tgt := string(rune('a'+i)), string(rune('a'+i+1))
		d.Edges = append(d.Edges, edge(src+tgt, src, "m0", tgt, "s0"))
	}
	fs := byRule(evaluate(d, nil, registry.DefaultOptions()), "DRC-PERF-003")
	require.Len(t, fs, 1)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, fs[0].AffectedComponents)
	assert.Contains(t, fs[0].Message, "6 hops")
}

func TestParameterRules(t *testing.T) {
	lo, hi := 1.0, 64.0
	comps := []diagram.ArchitecturalComponent{{
		ID: "fifo", Type: "fifo", Name: "FIFO",
		Parameters: []diagram.ParameterSpec{
			{Name: "depth", Type: "int", Required: true, Min: &lo, Max: &hi},
			{Name: "mode", Type: "enum", Allowed: []string{"fast", "slow"}},
			{Name: "width", Type: "number", Required: true, Default: 32.0},
		},
	}}
	fifo := func(id string, params map[string]any) diagram.Node {
		return diagram.Node{ID: id, Type: "fifo", Data: diagram.NodeData{Label: id, Parameters: params}}
	}
	d := &diagram.Diagram{Nodes: []diagram.Node{
		fifo("missing", nil),
		fifo("badtype", map[string]any{"depth": "deep"}),
		fifo("fraction", map[string]any{"depth": 3.5}),
		fifo("toobig", map[string]any{"depth": 128.0}),
		fifo("badenum", map[string]any{"depth": 8.0, "mode": "turbo"}),
		fifo("good", map[string]any{"depth": "16", "mode": "fast"}),
	}}
	fs := evaluate(d, comps, registry.DefaultOptions())

	req := byRule(fs, "DRC-PARAM-001")
	require.Len(t, req, 1, "parameters with defaults are not required")
	assert.Equal(t, []string{"missing"}, req[0].AffectedComponents)

	typ := byRule(fs, "DRC-PARAM-002")
	require.Len(t, typ, 2)
	assert.Equal(t, []string{"badtype"}, typ[0].AffectedComponents)
	assert.Equal(t, []string{"fraction"}, typ[1].AffectedComponents)

	rng := byRule(fs, "DRC-PARAM-003")
	require.Len(t, rng, 2)
	assert.Equal(t, []string{"toobig"}, rng[0].AffectedComponents)
	assert.Contains(t, rng[0].Message, "above maximum 64")
	assert.Equal(t, []string{"badenum"}, rng[1].AffectedComponents)
}

func TestNamingRules(t *testing.T) {
	a := node("a", diagram.Interface{ID: "m0", Name: "AXI-M 0", Direction: diagram.DirMaster})
	a.Data.Label = "CPU"
	b := node("b", diagram.Interface{ID: "s0", Name: "s_axi", Direction: diagram.DirSlave})
	b.Data.Label = "cpu "
	d := &diagram.Diagram{
		Nodes: []diagram.Node{a, b},
		Edges: []diagram.Edge{edge("e", "a", "m0", "b", "s0")},
	}
	fs := evaluate(d, nil, registry.DefaultOptions())

	names := byRule(fs, "DRC-NAME-001")
	require.Len(t, names, 1)
	assert.Equal(t, []string{"a", "b"}, names[0].AffectedComponents)

	ifaces := byRule(fs, "DRC-NAME-002")
	require.Len(t, ifaces, 1)
	assert.Equal(t, "Rename it to AXI_M_0", ifaces[0].SuggestedFix)
}

func TestTypedParam_Conversions(t *testing.T) {
	tests := []struct {
		typ     string
		raw     any
		wantErr bool
	}{
		{"string", "x", false},
		{"string", 42.0, false},
		{"number", "42", false},
		{"number", true, true},
		{"bool", "true", false},
		{"bool", "maybe", true},
		{"int", 4.0, false},
		{"integer", 4.5, true},
		{"list", []any{"a", 1.0}, false},
		{"list", "a", true},
		{"map", map[string]any{"k": 1.0}, false},
		{"whatever", []any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			_, err := typedParam(diagram.ParameterSpec{Name: "p", Type: tt.typ}, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
