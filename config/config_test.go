package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
tps: 30
frames: 600
scripts_dir: scripts
watch: true
entities:
  - id: E1
    scripts: [MyFirstScript, Heartbeat]
  - id: player
    scripts: [GreeterCaller]
invoke:
  - target: ManagedScripts.Greeter.SayHello
    args: [World]
  - target: ScriptAPI.EngineInterface.Ping
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Equal(t, Config{
		TPS:        30,
		Frames:     600,
		ScriptsDir: "scripts",
		Watch:      true,
		Entities: []EntitySpec{
			{ID: "E1", Scripts: []string{"MyFirstScript", "Heartbeat"}},
			{ID: "player", Scripts: []string{"GreeterCaller"}},
		},
		Invoke: []InvokeSpec{
			{Target: "ManagedScripts.Greeter.SayHello", Args: []string{"World"}},
			{Target: "ScriptAPI.EngineInterface.Ping"},
		},
	}, cfg)
}

func TestParseDefaultsTPS(t *testing.T) {
	cfg, err := Parse([]byte("frames: 10\n"))
	require.NoError(t, err)
	require.Equal(t, DefaultTPS, cfg.TPS)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad_yaml", "tps: [1"},
		{"zero_tps", "tps: 0"},
		{"negative_tps", "tps: -5"},
		{"tps_too_high", "tps: 2000000000"},
		{"empty_entity", "entities:\n  - scripts: [MyFirstScript]\n"},
		{"duplicate_entity", "entities:\n  - id: A\n  - id: A\n"},
		{"bad_target", "invoke:\n  - target: SayHello\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.TPS)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}
