package tengoscript

import (
	"strings"

	"github.com/d5/tengo/v2"
)

// traceArg renders a script value the way it reads in a trace line: strings
// and chars unquoted, errors prefixed.
func traceArg(obj tengo.Object) string {
	switch v := obj.(type) {
	case nil:
		return ""
	case *tengo.String:
		return v.Value
	case *tengo.Char:
		return string(v.Value)
	case *tengo.Undefined:
		return "undefined"
	case *tengo.Error:
		return "error: " + traceArg(v.Value)
	default:
		return v.String()
	}
}

func traceLine(args []tengo.Object) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = traceArg(arg)
	}
	return strings.Join(parts, " ")
}
