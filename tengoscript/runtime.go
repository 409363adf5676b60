// Package tengoscript builds script types from Tengo sources.
//
// A source defines two functions, start and update, each taking the engine
// map and the per-instance state map:
//
//	script_name := "Blinker" // optional, defaults to the file name
//	start := func(engine, state) { state.count = 0 }
//	update := func(engine, state) { state.count += 1 }
package tengoscript

import (
	"fmt"
	"path"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/scripthost/script"
	"go.uber.org/zap"
)

// Ext is the file extension handled by this backend.
const Ext = ".tengo"

const lifecycleDispatchScript = `
if __phase == "start" {
	start(__engine, __state)
} else if __phase == "update" {
	update(__engine, __state)
}
`

// Compile parses and compiles src once. Every instance built by the returned
// type runs on its own clone of the compiled program.
func Compile(file string, src []byte, env script.Env) (script.Type, error) {
	env = env.WithDefaults()

	sc := tengo.NewScript([]byte(string(src) + "\n" + lifecycleDispatchScript))
	_ = sc.Add("__phase", "")
	_ = sc.Add("__engine", map[string]any{})
	_ = sc.Add("__state", map[string]any{})
	sc.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := sc.Compile()
	if err != nil {
		return script.Type{}, fmt.Errorf("tengoscript: compile %s: %w", file, err)
	}

	// Run the top level once so globals like script_name resolve.
	if err := runCompiled(compiled); err != nil {
		return script.Type{}, fmt.Errorf("tengoscript: evaluate %s: %w", file, err)
	}

	name := strings.TrimSuffix(path.Base(file), Ext)
	if compiled.IsDefined("script_name") {
		if s := strings.TrimSpace(compiled.Get("script_name").String()); s != "" {
			name = s
		}
	}

	logger := env.Logger.With(zap.String("script", name), zap.String("file", file))
	return script.Type{
		Name:   name,
		Source: file,
		New: func() script.Script {
			return newInstance(name, compiled.Clone(), env, logger)
		},
	}, nil
}

type instance struct {
	script.Base

	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	engine   *tengo.ImmutableMap
	logger   *zap.Logger
	err      error
}

func newInstance(name string, compiled *tengo.Compiled, env script.Env, logger *zap.Logger) *instance {
	in := &instance{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
		logger:   logger,
	}
	in.engine = buildEngine(script.NewEngine(&in.Base, env))
	return in
}

func (in *instance) Start() {
	in.run("start")
}

func (in *instance) Update() {
	in.run("update")
}

// Err returns the error that disabled the instance, if any.
func (in *instance) Err() error {
	return in.err
}

func (in *instance) run(phase string) {
	if in.err != nil {
		return
	}
	if err := in.runPhase(phase); err != nil {
		in.err = fmt.Errorf("tengoscript: %s %s: %w", in.name, phase, err)
		in.logger.Error("script disabled", zap.String("phase", phase), zap.String("entity", in.EntityLabel()), zap.Error(err))
	}
}

func (in *instance) runPhase(phase string) error {
	if err := in.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := in.compiled.Set("__engine", in.engine); err != nil {
		return err
	}
	if err := in.compiled.Set("__state", in.state); err != nil {
		return err
	}
	return runCompiled(in.compiled)
}

// runCompiled executes c. A panic inside the VM, such as an integer
// division by zero, comes back as an error.
func runCompiled(c *tengo.Compiled) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Run()
}

func buildEngine(e *script.Engine) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["trace"] = &tengo.UserFunction{Name: "trace", Value: func(args ...tengo.Object) (tengo.Object, error) {
		e.Trace(traceLine(args))
		return tengo.UndefinedValue, nil
	}}

	values["entity_id"] = &tengo.UserFunction{Name: "entity_id", Value: func(args ...tengo.Object) (tengo.Object, error) {
		id, err := e.EntityID()
		if err != nil {
			return tengo.UndefinedValue, nil
		}
		return &tengo.String{Value: id}, nil
	}}

	values["invoke"] = &tengo.UserFunction{Name: "invoke", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		target := strings.TrimSpace(traceArg(args[0]))
		method := strings.TrimSpace(traceArg(args[1]))
		rest := make([]string, 0, len(args)-2)
		for _, arg := range args[2:] {
			rest = append(rest, traceArg(arg))
		}
		if err := e.Invoke(target, method, rest...); err != nil {
			return &tengo.Error{Value: &tengo.String{Value: err.Error()}}, nil
		}
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
