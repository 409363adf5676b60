package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReportsScriptWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	script := filepath.Join(dir, "blinker.tengo")
	require.NoError(t, os.WriteFile(script, []byte("x := 1"), 0o644))

	select {
	case got := <-w.Events:
		require.Equal(t, script, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for script event")
	}
}

func nextEvent(t *testing.T, w *Watcher, timeout time.Duration) (string, bool) {
	t.Helper()
	select {
	case got := <-w.Events:
		return got, true
	case <-time.After(timeout):
		return "", false
	}
}

func TestWatcherReportsQuickSecondSave(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)
	defer w.Close()

	script := filepath.Join(dir, "blinker.tengo")
	require.NoError(t, os.WriteFile(script, []byte("v1"), 0o644))
	got, ok := nextEvent(t, w, 5*time.Second)
	require.True(t, ok, "first write not reported")
	require.Equal(t, script, got)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, os.WriteFile(script, []byte("v2 final"), 0o644))
	got, ok = nextEvent(t, w, 5*time.Second)
	require.True(t, ok, "second write not reported")
	require.Equal(t, script, got)
}

func TestWatcherCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)
	defer w.Close()

	script := filepath.Join(dir, "blinker.tengo")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(script, []byte{byte('a' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	got, ok := nextEvent(t, w, 5*time.Second)
	require.True(t, ok, "burst not reported")
	require.Equal(t, script, got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, "e", string(data))

	_, ok = nextEvent(t, w, 3*Debounce)
	require.False(t, ok, "burst reported more than once")
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Events
	require.False(t, ok)
}

func TestNewFailsOnMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestIsWatched(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"scripts/a.tengo", true},
		{"scripts/a.go", true},
		{"engine.yaml", true},
		{"engine.YML", true},
		{"notes.txt", false},
		{"tengo", false},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			require.Equal(t, tc.want, IsWatched(tc.path))
		})
	}
}
