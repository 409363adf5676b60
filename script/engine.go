package script

import (
	"github.com/milk9111/scripthost/trace"
	"go.uber.org/zap"
)

// Env is what the host hands to script backends when building types.
type Env struct {
	Tracer   trace.Tracer
	Commands Invoker
	Logger   *zap.Logger
}

// WithDefaults fills nil fields with inert implementations.
func (e Env) WithDefaults() Env {
	if e.Tracer == nil {
		e.Tracer = trace.Func(func(string) {})
	}
	if e.Commands == nil {
		e.Commands = NewCommands()
	}
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	return e
}

// Engine is the handle a dynamic script receives on every call.
type Engine struct {
	base *Base
	env  Env
}

func NewEngine(base *Base, env Env) *Engine {
	return &Engine{base: base, env: env.WithDefaults()}
}

// Trace emits a diagnostic line.
func (e *Engine) Trace(msg string) {
	e.env.Tracer.Trace(msg)
}

// EntityID returns the attached entity id, or ErrEntityNotAssigned before
// attachment.
func (e *Engine) EntityID() (string, error) {
	if e.base == nil {
		return "", ErrEntityNotAssigned
	}
	id, err := e.base.EntityID()
	return string(id), err
}

// Invoke calls a static command through the host's command table.
func (e *Engine) Invoke(target, method string, args ...string) error {
	return e.env.Commands.Invoke(target, method, args...)
}
