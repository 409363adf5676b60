// Package goscript builds script types from Go sources run by the yaegi
// interpreter. A script is a single package importing "scripthost":
//
//	package blinker
//
//	import "scripthost"
//
//	const ScriptName = "Blinker"
//
//	func Start(e *scripthost.Engine, state map[string]any)  {}
//	func Update(e *scripthost.Engine, state map[string]any) {}
package goscript

import (
	"fmt"
	"path"
	"reflect"
	"regexp"
	"strings"

	"github.com/milk9111/scripthost/script"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// Ext is the file extension handled by this backend.
const Ext = ".go"

// LifecycleFunc is the signature of Start and Update in a Go script.
type LifecycleFunc = func(e *script.Engine, state map[string]any)

var packageRE = regexp.MustCompile(`(?m)^\s*package\s+([A-Za-z_][A-Za-z0-9_]*)`)

// Symbols exposed to scripts as `import "scripthost"`.
var apiExports = interp.Exports{
	"scripthost/scripthost": {
		"Engine": reflect.ValueOf((*script.Engine)(nil)),
	},
}

// Compile interprets src once and returns a type whose instances share the
// interpreted functions but each own a state map.
func Compile(file string, src []byte, env script.Env) (script.Type, error) {
	env = env.WithDefaults()

	m := packageRE.FindSubmatch(src)
	if len(m) < 2 {
		return script.Type{}, fmt.Errorf("goscript: %s: missing package clause", file)
	}
	pkg := string(m[1])

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return script.Type{}, fmt.Errorf("goscript: load stdlib: %w", err)
	}
	if err := i.Use(apiExports); err != nil {
		return script.Type{}, fmt.Errorf("goscript: load api: %w", err)
	}
	if _, err := i.Eval(string(stripGoBuildDirectives(src))); err != nil {
		return script.Type{}, fmt.Errorf("goscript: eval %s: %w", file, err)
	}

	start, err := lookupLifecycle(i, pkg, "Start")
	if err != nil {
		return script.Type{}, fmt.Errorf("goscript: %s: %w", file, err)
	}
	update, err := lookupLifecycle(i, pkg, "Update")
	if err != nil {
		return script.Type{}, fmt.Errorf("goscript: %s: %w", file, err)
	}

	name := strings.TrimSuffix(path.Base(file), Ext)
	if v, err := i.Eval(pkg + ".ScriptName"); err == nil && v.Kind() == reflect.String {
		if s := strings.TrimSpace(v.String()); s != "" {
			name = s
		}
	}

	logger := env.Logger.With(zap.String("script", name), zap.String("file", file))
	return script.Type{
		Name:   name,
		Source: file,
		New: func() script.Script {
			in := &instance{
				name:   name,
				start:  start,
				update: update,
				state:  map[string]any{},
				logger: logger,
			}
			in.engine = script.NewEngine(&in.Base, env)
			return in
		},
	}, nil
}

func lookupLifecycle(i *interp.Interpreter, pkg, fn string) (LifecycleFunc, error) {
	v, err := i.Eval(pkg + "." + fn)
	if err != nil {
		return nil, fmt.Errorf("%s not found: %w", fn, err)
	}
	f, ok := v.Interface().(LifecycleFunc)
	if !ok {
		return nil, fmt.Errorf("%s has signature %s, want func(*scripthost.Engine, map[string]any)", fn, v.Type())
	}
	return f, nil
}

// stripGoBuildDirectives drops leading build constraints, which only matter
// to the Go toolchain.
func stripGoBuildDirectives(src []byte) []byte {
	lines := strings.Split(string(src), "\n")
	i := 0
	for i < len(lines) {
		l := strings.TrimSpace(lines[i])
		if strings.HasPrefix(l, "//go:build") || strings.HasPrefix(l, "// +build") || l == "" {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return src
	}
	return []byte(strings.Join(lines[i:], "\n"))
}

type instance struct {
	script.Base

	name   string
	start  LifecycleFunc
	update LifecycleFunc
	state  map[string]any
	engine *script.Engine
	logger *zap.Logger
	err    error
}

func (in *instance) Start() {
	in.call("start", in.start)
}

func (in *instance) Update() {
	in.call("update", in.update)
}

// Err returns the error that disabled the instance, if any.
func (in *instance) Err() error {
	return in.err
}

func (in *instance) call(phase string, fn LifecycleFunc) {
	if in.err != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			in.err = fmt.Errorf("goscript: %s %s: panic: %v", in.name, phase, r)
			in.logger.Error("script disabled", zap.String("phase", phase), zap.String("entity", in.EntityLabel()), zap.Any("panic", r))
		}
	}()
	fn(in.engine, in.state)
}
