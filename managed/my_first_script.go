package managed

import (
	"github.com/milk9111/scripthost/script"
	"github.com/milk9111/scripthost/trace"
)

// HelloEvery is the update throttle: one trace line per this many frames.
const HelloEvery = 60

// MyFirstScript counts its updates and says hello roughly once a second at
// 60 frames per second.
type MyFirstScript struct {
	script.Base

	tracer      trace.Tracer
	updateCount int
}

func NewMyFirstScript(t trace.Tracer) *MyFirstScript {
	s := &MyFirstScript{tracer: t}
	trace.Tracef(t, "---> MyFirstScript instance created (Constructor). Entity ID not set yet.")
	return s
}

func (s *MyFirstScript) Start() {
	trace.Tracef(s.tracer, "---> MyFirstScript Start() called for Entity ID: %s", s.EntityLabel())
}

func (s *MyFirstScript) Update() {
	s.updateCount++
	if s.updateCount%HelloEvery == 0 {
		trace.Tracef(s.tracer, "HELLOOOOO")
	}
}

// UpdateCount returns how many times Update has run.
func (s *MyFirstScript) UpdateCount() int {
	return s.updateCount
}
