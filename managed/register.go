// Package managed holds the scripts compiled into the host binary.
package managed

import (
	"errors"

	"github.com/milk9111/scripthost/script"
	"github.com/milk9111/scripthost/trace"
)

const (
	Namespace = "ManagedScripts"

	MyFirstScriptName = "MyFirstScript"
	GreeterTarget     = Namespace + ".Greeter"
)

// TypeRegistrar accepts native script types.
type TypeRegistrar interface {
	RegisterType(t script.Type) error
}

// Types returns the native script types bound to t.
func Types(t trace.Tracer) []script.Type {
	return []script.Type{
		{
			Name:   MyFirstScriptName,
			Source: script.SourceNative,
			New:    func() script.Script { return NewMyFirstScript(t) },
		},
	}
}

// Register adds the native script types to r and the static Greeter entry
// points to cmds.
func Register(r TypeRegistrar, cmds *script.Commands, t trace.Tracer) error {
	var errs []error
	for _, typ := range Types(t) {
		errs = append(errs, r.RegisterType(typ))
	}

	greeter := NewGreeter(t)
	errs = append(errs,
		cmds.Register(GreeterTarget, "SayHello", 1, func(args []string) {
			SayHello(t, args[0])
		}),
		cmds.Register(GreeterTarget, "Update", 0, func([]string) {
			greeter.Update()
		}),
	)
	return errors.Join(errs...)
}
