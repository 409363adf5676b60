package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Trace("HELLOOOOO")
	w.Trace("line\n")
	Tracef(w, "entity %s", "E1")

	require.Equal(t, "HELLOOOOO\nline\nentity E1\n", buf.String())
}

func TestNilTracers(t *testing.T) {
	Tracef(nil, "dropped %d", 1)
	var f Func
	f.Trace("dropped")
	var w *Writer
	w.Trace("dropped")
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Trace("a E1")
	r.Trace("b")
	r.Trace("c E1")

	require.Equal(t, 2, r.Count("E1"))
	lines := r.Lines()
	lines[0] = "mutated"
	require.Equal(t, "a E1", r.Lines()[0])

	r.Reset()
	require.Empty(t, r.Lines())
}

func TestRing(t *testing.T) {
	r := NewRing(3)
	for _, l := range []string{"1", "2", "3", "4", "5"} {
		r.Trace(l)
	}
	require.Equal(t, []string{"3", "4", "5"}, r.Lines())

	require.Equal(t, []string{"x"}, func() []string {
		one := NewRing(0)
		one.Trace("w")
		one.Trace("x")
		return one.Lines()
	}())
}

func TestZapAndTee(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := &Recorder{}
	tee := Tee{NewZap(zap.New(core)), rec, nil}

	tee.Trace("HELLOOOOO")

	require.Equal(t, []string{"HELLOOOOO"}, rec.Lines())
	require.Equal(t, 1, logs.FilterMessage("HELLOOOOO").Len())
	require.Equal(t, "script", logs.All()[0].ContextMap()["source"])
}
