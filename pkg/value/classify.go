package value

import (
	"fmt"
	"strconv"
)

// UnsupportedError names the first value, by path, that is outside the saveable universe.
type UnsupportedError struct {
	Path   string
	Type   string
	Reason string
}

func (e *UnsupportedError) Error() string {
	msg := fmt.Sprintf("cannot save %s", e.Type)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Supported reports whether v belongs to the saveable value universe.
func Supported(v any) bool {
	return Check(v) == nil
}

// Check walks v and returns an *UnsupportedError for the first value that
// cannot be saved, or nil. Empty containers and zero-length arrays pass;
// array contents are never inspected, only their dtype.
func Check(v any) error {
	return check(v, "")
}

func check(v any, path string) error {
	switch x := v.(type) {
	case nil, bool, int, int32, int64, float32, float64, complex64, complex128, string:
		return nil
	case *Array:
		return checkArray(x, path)
	case *Index:
		return checkIndex(x, path)
	case *Frame:
		if x == nil {
			return unsupported(path, v, "nil frame")
		}
		if err := checkIndex(x.index, join(path, "index")); err != nil {
			return err
		}
		for _, c := range x.columns {
			if err := checkArray(c.Values, join(path, c.Name)); err != nil {
				return err
			}
		}
		return nil
	case *Series:
		if x == nil {
			return unsupported(path, v, "nil series")
		}
		if err := checkIndex(x.index, join(path, "index")); err != nil {
			return err
		}
		return checkArray(x.values, path)
	case []any:
		return checkSeq(x, path)
	case List:
		return checkSeq(x, path)
	case Tuple:
		return checkSeq(x, path)
	case *Set:
		if x == nil {
			return unsupported(path, v, "nil set")
		}
		return checkSeq(x.items, path)
	case *FrozenSet:
		if x == nil || x.set == nil {
			return unsupported(path, v, "nil frozenset")
		}
		return checkSeq(x.set.items, path)
	case map[string]any:
		for k, item := range x {
			if err := check(item, join(path, k)); err != nil {
				return err
			}
		}
		return nil
	default:
		return unsupported(path, v, "")
	}
}

func checkSeq(items []any, path string) error {
	for i, item := range items {
		if err := check(item, path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	return nil
}

func checkArray(a *Array, path string) error {
	if a == nil {
		return unsupported(path, a, "nil array")
	}
	if !a.dtype.Valid() {
		return unsupported(path, a, "invalid dtype")
	}
	if a.dtype == Object {
		return unsupported(path, a, "object dtype")
	}
	return nil
}

func checkIndex(x *Index, path string) error {
	if x == nil {
		return unsupported(path, x, "nil index")
	}
	if x.rng != nil {
		return nil
	}
	return checkArray(x.values, path)
}

func unsupported(path string, v any, reason string) error {
	return &UnsupportedError{Path: path, Type: fmt.Sprintf("%T", v), Reason: reason}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
