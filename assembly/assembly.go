// Package assembly loads the dynamic script types from a directory.
package assembly

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/milk9111/scripthost/goscript"
	"github.com/milk9111/scripthost/script"
	"github.com/milk9111/scripthost/tengoscript"
)

// Compiler turns one script source into a script type.
type Compiler func(file string, src []byte, env script.Env) (script.Type, error)

var compilers = map[string]Compiler{
	tengoscript.Ext: tengoscript.Compile,
	goscript.Ext:    goscript.Compile,
}

// Assembly is one loaded generation of script types.
type Assembly struct {
	Types []script.Type
}

// Names returns the type names in load order.
func (a *Assembly) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Types))
	for _, t := range a.Types {
		names = append(names, t.Name)
	}
	return names
}

// IsScriptFile reports whether a path has an extension some backend handles.
func IsScriptFile(p string) bool {
	_, ok := compilers[strings.ToLower(path.Ext(p))]
	return ok
}

// Load compiles every top-level script file in fsys. Any failing file fails
// the whole load; the returned error lists every failure.
func Load(fsys fs.FS, env script.Env) (*Assembly, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("assembly: read dir: %w", err)
	}

	var (
		types []script.Type
		errs  []error
		seen  = map[string]string{}
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		compile, ok := compilers[strings.ToLower(path.Ext(name))]
		if !ok {
			continue
		}

		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("assembly: read %s: %w", name, err))
			continue
		}
		typ, err := compile(name, src, env)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[typ.Name]; dup {
			errs = append(errs, fmt.Errorf("assembly: %w: %s in %s and %s", script.ErrDuplicateType, typ.Name, prev, name))
			continue
		}
		seen[typ.Name] = name
		types = append(types, typ)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return &Assembly{Types: types}, nil
}
