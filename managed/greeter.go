package managed

import "github.com/milk9111/scripthost/trace"

// Greeter is a free-standing utility. It is not a Script and is never
// attached to an entity.
type Greeter struct {
	tracer trace.Tracer
}

func NewGreeter(t trace.Tracer) *Greeter {
	return &Greeter{tracer: t}
}

// SayHello is the static entry point the host invokes by name.
func SayHello(t trace.Tracer, name string) {
	trace.Tracef(t, "---> Greeter.SayHello: Hello, %s!", name)
}

// Update is a placeholder until scripts can read engine state.
func (g *Greeter) Update() {
	trace.Tracef(g.tracer, "---> Greeter Update() called (engine state access not implemented)")
}
