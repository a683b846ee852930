package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soc-pilot/drc/internal/result"
)

type stubRule struct{ id string }

func (s stubRule) Meta() Meta { return Meta{ID: s.id, Severity: result.Info} }
func (s stubRule) Check(*Context) []result.Finding { return nil }

func TestRegistry_ListIsCatalogOrdered(t *testing.T) {
	r := New()
	for _, id := range []string{"DRC-NAME-001", "X-CUSTOM", "DRC-ADDR-002", "DRC-CONN-002", "DRC-CONN-001", "DRC-AXI-001"} {
		r.Register(stubRule{id: id})
	}
	var ids []string
	for _, m := range r.Catalog() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"DRC-CONN-001", "DRC-CONN-002", "DRC-AXI-001", "DRC-ADDR-002", "DRC-NAME-001", "X-CUSTOM"}, ids)

	_, ok := r.Get("DRC-AXI-001")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestMeta_FindingNeverNilAffected(t *testing.T) {
	m := Meta{ID: "DRC-X-001", Severity: result.Warning, Category: result.Naming}
	f := m.Finding("msg", nil, "")
	assert.NotNil(t, f.AffectedComponents)
	assert.Equal(t, result.Warning, f.Severity)
	assert.Equal(t, result.Naming, f.Category)
}

func TestOptions_UnknownKeysIgnored(t *testing.T) {
	opts := DefaultOptions()
	err := json.Unmarshal([]byte(`{"checkOptionalPorts":true,"flux":"capacitor","maxFanOut":3}`), &opts)
	require.NoError(t, err)
	assert.True(t, opts.CheckOptionalPorts)
	assert.Equal(t, 3, opts.MaxFanOut)
	assert.Equal(t, 4, opts.MaxPathLength)
	assert.True(t, opts.AutoFix)
}

func TestReservedRegion_Range(t *testing.T) {
	r, err := DefaultOptions().ReservedRegions[0].Range()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.Start)
	assert.Equal(t, uint64(0xFFF), r.Last)
}
