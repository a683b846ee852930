package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Tiers(t *testing.T) {
	g := New("cpu", "xbar", "ddr", "uart")
	g.AddEdge("cpu", "xbar")
	g.AddEdge("xbar", "ddr")
	g.AddEdge("xbar", "uart")
	g.AddEdge("cpu", "ddr")

	ordered, tiers, err := g.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu", "xbar", "ddr", "uart"}, ordered)
	assert.Equal(t, [][]string{{"cpu"}, {"xbar"}, {"ddr", "uart"}}, tiers)
}

func TestResolve_Cycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	_, _, err := g.Resolve()
	assert.ErrorIs(t, err, ErrCycle)

	self := New()
	self.AddEdge("a", "a")
	_, _, err = self.Resolve()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestResolve_Empty(t *testing.T) {
	ordered, tiers, err := New().Resolve()
	require.NoError(t, err)
	assert.Nil(t, ordered)
	assert.Nil(t, tiers)
}

func TestCycles_OneBackEdgePerLoop(t *testing.T) {
	g := New("cpu", "bridge", "xbar", "ddr")
	g.AddEdge("cpu", "bridge")
	g.AddEdge("bridge", "xbar")
	g.AddEdge("xbar", "cpu")
	g.AddEdge("xbar", "ddr")

	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, "xbar", cycles[0].From)
	assert.Equal(t, "cpu", cycles[0].To)
	assert.Equal(t, []string{"cpu", "bridge", "xbar", "cpu"}, cycles[0].Path)
}

func TestCycles_AcyclicDiamond(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	g.AddEdge("b", "d")
	g.AddEdge("c", "d")
	assert.Empty(t, g.Cycles())
}

func TestCycles_SelfLoop(t *testing.T) {
	g := New()
	g.AddEdge("a", "a")
	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "a"}, cycles[0].Path)
}

func TestLongestPaths(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("a", "c")
	depth, err := g.LongestPaths()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, depth)
}

func TestLongestPaths_ShortcutDoesNotShortenDepth(t *testing.T) {
	g := New("lonely")
	g.AddEdge("cpu", "bridge")
	g.AddEdge("bridge", "xbar")
	g.AddEdge("xbar", "ddr")
	g.AddEdge("cpu", "ddr")
	depth, err := g.LongestPaths()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"lonely": 0, "cpu": 0, "bridge": 1, "xbar": 2, "ddr": 3}, depth)

	g.AddEdge("ddr", "cpu")
	_, err = g.LongestPaths()
	assert.ErrorIs(t, err, ErrCycle)
}
