package diagram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection_Roles(t *testing.T) {
	tests := []struct {
		dir           Direction
		master, slave bool
		signal        bool
	}{
		{"master", true, false, false},
		{"Slave", false, true, false},
		{"master&slave", true, true, false},
		{"Master & Slave", true, true, false},
		{"master/slave", true, true, false},
		{"input", false, false, true},
		{"inout", false, false, true},
		{"", false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			assert.Equal(t, tt.master, tt.dir.IsMaster())
			assert.Equal(t, tt.slave, tt.dir.IsSlave())
			assert.Equal(t, tt.signal, tt.dir.IsSignal())
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"nodes":[{"id":"a","data":{"interfaces":[{"id":"m0","direction":"master & slave"}]}}],"edges":[]}`, false},
		{"empty arrays", `{"nodes":[],"edges":[]}`, false},
		{"missing nodes", `{"edges":[]}`, true},
		{"missing edges", `{"nodes":[]}`, true},
		{"bad direction", `{"nodes":[{"id":"a","data":{"interfaces":[{"id":"m0","direction":"sideways"}]}}],"edges":[]}`, true},
		{"bad inline component direction", `{"nodes":[{"id":"a","data":{"component":{"id":"c","interfaces":[{"id":"m0","direction":"sideways"}]}}}],"edges":[]}`, true},
		{"inline component", `{"nodes":[{"id":"a","data":{"component":{"id":"c","interfaces":[{"id":"m0","direction":"master"}]}}}],"edges":[]}`, false},
		{"negative width", `{"nodes":[{"id":"a","data":{"interfaces":[{"id":"m0","dataWidth":-8}]}}],"edges":[]}`, true},
		{"not json", `{nodes`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDiagram))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, d)
		})
	}
}

func TestDecode_InlineComponentDirectionIsNamed(t *testing.T) {
	_, err := Decode([]byte(`{"nodes":[{"id":"a","data":{"component":{"id":"c","interfaces":[{"id":"m0","direction":"sideways"}]}}}],"edges":[]}`))
	require.ErrorIs(t, err, ErrInvalidDiagram)
	assert.ErrorContains(t, err, `nodes[0].data.component.interfaces[0].direction: unknown direction "sideways"`)
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	d, err := Decode([]byte(`{"nodes":[
		{"id":"a","data":{"addressMapping":{"baseAddress":"0x4000_0000","addressSpace":4096}}}
	],"edges":[]}`))
	require.NoError(t, err)
	m := d.Nodes[0].Data.AddressMapping
	require.NotNil(t, m)
	assert.Equal(t, Quantity("0x4000_0000"), m.BaseAddress)
	assert.Equal(t, Quantity("4096"), m.AddressSpace)

	r, err := m.Range()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x40000000), r.Start)
	assert.Equal(t, uint64(0x40000FFF), r.Last)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      Quantity
		want    uint64
		wantErr bool
	}{
		{"4096", 4096, false},
		{"0x1000", 4096, false},
		{"4KB", 4 << 10, false},
		{"4 KiB", 4 << 10, false},
		{"256M", 256 << 20, false},
		{"2GB", 2 << 30, false},
		{"1T", 1 << 40, false},
		{"", 0, true},
		{"KB", 0, true},
		{"12XB", 0, true},
		{"99999999999T", 0, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddressMapping_Range(t *testing.T) {
	var nilMapping *AddressMapping
	_, err := nilMapping.Range()
	assert.ErrorIs(t, err, ErrNoMapping)

	_, err = (&AddressMapping{BaseAddress: "0xFFFFFFFFFFFFF000", AddressSpace: "8KB"}).Range()
	assert.Error(t, err)

	_, err = (&AddressMapping{BaseAddress: "0x1000"}).Range()
	assert.Error(t, err)

	a, err := (&AddressMapping{BaseAddress: "0x1000", AddressSpace: "4KB"}).Range()
	require.NoError(t, err)
	b, err := (&AddressMapping{BaseAddress: "0x1800", AddressSpace: "0x100"}).Range()
	require.NoError(t, err)
	c, err := (&AddressMapping{BaseAddress: "0x2000", AddressSpace: "4KB"}).Range()
	require.NoError(t, err)
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
	assert.Equal(t, uint64(4096), a.Size())
}

func TestClone_IsDeep(t *testing.T) {
	d := &Diagram{
		Nodes: []Node{{
			ID: "a",
			Data: NodeData{
				Interfaces:     []Interface{{ID: "m0"}},
				Parameters:     map[string]any{"list": []any{"x"}, "nested": map[string]any{"k": 1.0}},
				AddressMapping: &AddressMapping{BaseAddress: "0x0", AddressSpace: "4KB"},
			},
		}},
		Edges: []Edge{{ID: "e"}},
	}
	c := d.Clone()
	require.Equal(t, d, c)

	c.Nodes[0].Data.Interfaces[0].ID = "changed"
	c.Nodes[0].Data.Parameters["list"].([]any)[0] = "y"
	c.Nodes[0].Data.Parameters["nested"].(map[string]any)["k"] = 2.0
	c.Nodes[0].Data.AddressMapping.BaseAddress = "0x1"
	c.Edges[0].ID = "f"

	assert.Equal(t, "m0", d.Nodes[0].Data.Interfaces[0].ID)
	assert.Equal(t, "x", d.Nodes[0].Data.Parameters["list"].([]any)[0])
	assert.Equal(t, 1.0, d.Nodes[0].Data.Parameters["nested"].(map[string]any)["k"])
	assert.Equal(t, Quantity("0x0"), d.Nodes[0].Data.AddressMapping.BaseAddress)
	assert.Equal(t, "e", d.Edges[0].ID)
}
