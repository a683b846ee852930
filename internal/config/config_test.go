package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soc-pilot/drc/internal/diagram"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Empty(t, cfg.Library.Dir)

	assert.True(t, cfg.DRC.AutoFix)
	assert.False(t, cfg.DRC.CheckOptionalPorts)
	assert.Equal(t, 16, cfg.DRC.MaxFanOut)
	assert.Equal(t, 4, cfg.DRC.MaxPathLength)
	assert.Equal(t, uint64(0x1000), cfg.DRC.AddressAlignment)
	require.Len(t, cfg.DRC.ReservedRegions, 1)
	assert.Equal(t, diagram.Quantity("0x1000"), cfg.DRC.ReservedRegions[0].Size)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOCDRC_SERVER_ADDR", ":9999")
	t.Setenv("SOCDRC_SERVER_REQUEST_TIMEOUT", "5s")
	t.Setenv("SOCDRC_DRC_MAX_FAN_OUT", "8")
	t.Setenv("SOCDRC_DRC_AUTO_FIX", "false")
	t.Setenv("SOCDRC_STORE_TYPE", "sqlite")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 8, cfg.DRC.MaxFanOut)
	assert.False(t, cfg.DRC.AutoFix)
	assert.Equal(t, "sqlite", cfg.Store.Type)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
store:
  type: badger
  path: /var/lib/drc
library:
  dir: ./components
  watch: true
drc:
  check_optional_ports: true
  disabled_rules: [DRC-NAME-002]
  reserved_regions:
    - name: rom
      base: "0x0"
      size: 64KB
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "badger", cfg.Store.Type)
	assert.Equal(t, "/var/lib/drc", cfg.Store.Path)
	assert.Equal(t, "./components", cfg.Library.Dir)
	assert.True(t, cfg.Library.Watch)
	assert.True(t, cfg.DRC.CheckOptionalPorts)
	assert.Equal(t, []string{"DRC-NAME-002"}, cfg.DRC.DisabledRules)
	require.Len(t, cfg.DRC.ReservedRegions, 1)
	assert.Equal(t, "rom", cfg.DRC.ReservedRegions[0].Name)
	assert.Equal(t, diagram.Quantity("64KB"), cfg.DRC.ReservedRegions[0].Size)
	assert.True(t, cfg.DRC.AutoFix, "unset keys keep defaults")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
