// Package trace provides the diagnostic line sink handed to scripts.
//
// Scripts never write to the process streams directly; they receive a Tracer
// and the host decides where the lines go.
package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Tracer receives one diagnostic line per call.
type Tracer interface {
	Trace(line string)
}

// Func adapts a plain function to a Tracer.
type Func func(line string)

func (f Func) Trace(line string) {
	if f == nil {
		return
	}
	f(line)
}

// Tracef formats a line and sends it to t. A nil tracer drops the line.
func Tracef(t Tracer, format string, args ...any) {
	if t == nil {
		return
	}
	t.Trace(fmt.Sprintf(format, args...))
}

// Writer writes each line, newline terminated, to an io.Writer.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Trace(line string) {
	if w == nil || w.w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = io.WriteString(w.w, strings.TrimRight(line, "\n")+"\n")
}

// Recorder keeps every traced line in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *Recorder) Trace(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Count returns how many recorded lines contain substr.
func (r *Recorder) Count(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.lines = nil
	r.mu.Unlock()
}

// Ring keeps the last n lines; used by the window overlay.
type Ring struct {
	mu    sync.Mutex
	size  int
	lines []string
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = 1
	}
	return &Ring{size: size}
}

func (r *Ring) Trace(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	if over := len(r.lines) - r.size; over > 0 {
		r.lines = append(r.lines[:0], r.lines[over:]...)
	}
}

func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Zap sends lines to a zap logger at info level.
type Zap struct {
	logger *zap.Logger
}

func NewZap(logger *zap.Logger) *Zap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Zap{logger: logger}
}

func (z *Zap) Trace(line string) {
	z.logger.Info(line, zap.String("source", "script"))
}

// Tee fans a line out to several tracers.
type Tee []Tracer

func (t Tee) Trace(line string) {
	for _, tr := range t {
		if tr != nil {
			tr.Trace(line)
		}
	}
}
