package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/milk9111/scripthost/config"
	"github.com/milk9111/scripthost/host"
	"github.com/milk9111/scripthost/trace"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewEngineDefault(t *testing.T) {
	rec := &trace.Recorder{}
	e, err := NewEngine(config.Default(), rec, nil)
	require.NoError(t, err)
	defer e.Shutdown()

	want := []string{
		"---> EngineInterface.Ping() called from host",
		"---> MyFirstScript instance created (Constructor). Entity ID not set yet.",
		"---> MyFirstScript Start() called for Entity ID: E1",
		"---> Greeter.SayHello: Hello, World!",
	}
	if diff := cmp.Diff(want, rec.Lines()); diff != "" {
		t.Fatalf("startup trace mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"GreeterCaller", "Heartbeat", "MyFirstScript"}, e.Host.Types())
}

func TestNewEngineErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want error
	}{
		{
			name: "unknown_script",
			cfg:  config.Config{TPS: 60, Entities: []config.EntitySpec{{ID: "E1", Scripts: []string{"Nope"}}}},
			want: host.ErrUnknownScript,
		},
		{
			name: "bad_invoke",
			cfg:  config.Config{TPS: 60, Invoke: []config.InvokeSpec{{Target: "ManagedScripts.Greeter.SayHello"}}},
		},
		{
			name: "tps_out_of_range",
			cfg:  config.Config{TPS: config.MaxTPS + 1},
			want: config.ErrInvalid,
		},
		{
			name: "missing_scripts_dir",
			cfg:  config.Config{TPS: 60, ScriptsDir: "/does/not/exist"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngine(tc.cfg, &trace.Recorder{}, nil)
			require.Error(t, err)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestRunHeadlessFrameLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Frames = 180
	cfg.Invoke = nil

	rec := &trace.Recorder{}
	e, err := NewEngine(cfg, rec, nil)
	require.NoError(t, err)
	defer e.Shutdown()

	require.NoError(t, RunHeadless(context.Background(), e, true))
	require.Equal(t, uint64(180), e.Host.Frame())
	require.Equal(t, 3, rec.Count("HELLOOOOO"))
}

func TestRunHeadlessPacedStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.TPS = 1000

	e, err := NewEngine(cfg, &trace.Recorder{}, nil)
	require.NoError(t, err)
	defer e.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, RunHeadless(ctx, e, false))
	require.Greater(t, e.Host.Frame(), uint64(0))
}

func TestHandleChangeReloads(t *testing.T) {
	dir := t.TempDir()
	src := `
script_name := "Echo"
start := func(engine, state) { engine.trace("echo v1") }
update := func(engine, state) {}
`
	path := filepath.Join(dir, "echo.tengo")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg := config.Config{
		TPS:        60,
		ScriptsDir: dir,
		Watch:      true,
		Entities:   []config.EntitySpec{{ID: "E1", Scripts: []string{"Echo"}}},
	}
	core, logs := observer.New(zap.InfoLevel)
	rec := &trace.Recorder{}
	e, err := NewEngine(cfg, rec, zap.New(core))
	require.NoError(t, err)
	defer e.Shutdown()
	require.Equal(t, []string{dir}, e.WatchDirs())
	require.Equal(t, 1, rec.Count("echo v1"))

	require.NoError(t, os.WriteFile(path, []byte(`
script_name := "Echo"
start := func(engine, state) { engine.trace("echo v2") }
update := func(engine, state) {}
`), 0o644))
	e.HandleChange(path)
	require.Equal(t, 1, rec.Count("echo v2"))

	e.HandleChange(filepath.Join(dir, "engine.yaml"))
	require.Equal(t, 1, logs.FilterMessage("config changed on disk, restart to apply").Len())

	require.NoError(t, os.WriteFile(path, []byte("start := func("), 0o644))
	e.HandleChange(path)
	require.Equal(t, 1, logs.FilterMessage("script reload failed").Len())
}

func TestWatchDirsDisabled(t *testing.T) {
	e, err := NewEngine(config.Default(), &trace.Recorder{}, nil)
	require.NoError(t, err)
	defer e.Shutdown()
	require.Empty(t, e.WatchDirs())
}
