package main

import (
	"fmt"
	"strings"

	"github.com/zeusync/ppersist/pkg/value"
)

// describe renders a one-line summary of a loaded value.
func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "none"
	case string:
		if r := []rune(x); len(r) > 32 {
			x = string(r[:29]) + "..."
		}
		return fmt.Sprintf("string %q", x)
	case bool, int, int32, int64, float32, float64, complex64, complex128:
		return fmt.Sprintf("%T %v", x, x)
	case *value.Array:
		return x.String()
	case *value.Frame:
		return fmt.Sprintf("frame(%d rows, columns=[%s])", x.NumRows(), strings.Join(x.Columns(), ", "))
	case *value.Series:
		return fmt.Sprintf("series(%q, %d rows, %s)", x.Name(), x.Len(), x.Values().DType())
	case *value.Index:
		return fmt.Sprintf("index(%q, %d labels)", x.Name(), x.Len())
	case []any:
		return fmt.Sprintf("list(%d)", len(x))
	case value.Tuple:
		return fmt.Sprintf("tuple(%d)", len(x))
	case map[string]any:
		return fmt.Sprintf("mapping(%d)", len(x))
	case *value.Set:
		return fmt.Sprintf("set(%d)", x.Len())
	case *value.FrozenSet:
		return fmt.Sprintf("frozenset(%d)", x.Len())
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%T", v)
	}
}
