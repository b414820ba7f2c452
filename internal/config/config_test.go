package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "civsim.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "backoff", cfg.Growth.Policy)
	assert.Equal(t, "local", cfg.Simulation.Authority)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[simulation]
max_turns = 5
tick_rate = "50ms"

[growth]
policy = "threshold"

[logging]
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Simulation.MaxTurns)
	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, "threshold", cfg.Growth.Policy)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.City.MaxSight, "untouched sections keep defaults")
	assert.Len(t, cfg.Simulation.Players, 2)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown growth", "[growth]\npolicy = \"both\"\n"},
		{"remote without network", "[simulation]\nauthority = \"remote\"\n"},
		{"local player unseated", "[simulation]\nlocal_player = 9\n"},
		{"duplicate seat", "[[simulation.players]]\nid = 1\n[[simulation.players]]\nid = 1\n"},
		{"bad map source", "[map]\nsource = \"download\"\n"},
		{"no frame limit", "[network]\nmax_frame_bytes = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
