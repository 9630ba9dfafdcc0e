package arbor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultCapacity, cfg.Capacity)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
capacity = 512
scratch_reserve = 64
debug = true
log_level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, Config{Capacity: 512, ScratchReserve: 64, Debug: true, LogLevel: "debug"}, cfg)
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`debug = true`))
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, cfg.Capacity)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Debug)
}

func TestParseConfigRejectsNegative(t *testing.T) {
	_, err := ParseConfig([]byte(`capacity = -1`))
	assert.ErrorContains(t, err, "capacity")

	_, err = ParseConfig([]byte(`scratch_reserve = -5`))
	assert.ErrorContains(t, err, "scratch_reserve")
}

func TestParseConfigRejectsOversizedCapacity(t *testing.T) {
	_, err := ParseConfig([]byte(`capacity = 2147483648`))
	assert.ErrorContains(t, err, "must not exceed")
}

func TestParseConfigBadTOML(t *testing.T) {
	_, err := ParseConfig([]byte(`capacity = [`))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte("capacity = 32\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Capacity)

	s := NewScene(cfg)
	assert.Equal(t, 32, s.Capacity())
	assert.Equal(t, 32, s.Stats().ScratchLength)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
