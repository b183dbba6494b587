// Package record exposes a decoded bundle as an immutable, ordered record
// whose fields are reachable by name or position.
package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/zeusync/ppersist/pkg/value"
)

var (
	ErrFieldNotFound   = errors.New("field not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrMalformedNames  = errors.New("malformed names entry")
)

// Record is an ordered, read-only view of a loaded bundle.
type Record struct {
	names  []string
	index  map[string]int
	values []any
}

// Project builds a record from b. The reserved names entry, when present,
// fixes the field order and is not itself a field.
func Project(b *value.Bundle) (*Record, error) {
	if b == nil {
		b = value.NewBundle()
	}

	order, err := fieldOrder(b)
	if err != nil {
		return nil, err
	}

	r := &Record{
		names:  order,
		index:  make(map[string]int, len(order)),
		values: make([]any, len(order)),
	}
	for i, name := range order {
		r.index[name] = i
		r.values[i], _ = b.Get(name)
	}
	return r, nil
}

func fieldOrder(b *value.Bundle) ([]string, error) {
	raw, ok := b.Get(value.NamesKey)
	if !ok {
		return b.Names(), nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T, want a list of strings", ErrMalformedNames, raw)
	}
	order := make([]string, 0, b.Len()-1)
	seen := make(map[string]struct{}, len(list))
	for i, item := range list {
		name, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T", ErrMalformedNames, i, item)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q listed twice", ErrMalformedNames, name)
		}
		if _, present := b.Get(name); !present || name == value.NamesKey {
			return nil, fmt.Errorf("%w: %q is not a stored field", ErrMalformedNames, name)
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	// Entries the names list does not mention keep their stored order at the end.
	for _, name := range b.Names() {
		if _, listed := seen[name]; !listed && name != value.NamesKey {
			order = append(order, name)
		}
	}
	return order, nil
}

func (r *Record) Len() int { return len(r.names) }

// Names returns the field names in order.
func (r *Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Record) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Get returns the field called name.
func (r *Record) Get(name string) (any, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	return r.values[i], nil
}

// At returns the i-th field. Negative positions count from the end.
func (r *Record) At(i int) (any, error) {
	if i < 0 {
		i += len(r.values)
	}
	if i < 0 || i >= len(r.values) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(r.values))
	}
	return r.values[i], nil
}

// Values returns the field values in order.
func (r *Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Bundle copies the record back into a bundle, without the names entry.
func (r *Record) Bundle() *value.Bundle {
	b := value.NewBundle()
	for i, name := range r.names {
		b.Set(name, r.values[i])
	}
	return b
}

// Unpack assigns the fields positionally to ptrs, which must match the field
// count. A nil pointer skips its field.
func (r *Record) Unpack(ptrs ...any) error {
	if len(ptrs) != len(r.values) {
		return fmt.Errorf("unpack %d fields into %d targets", len(r.values), len(ptrs))
	}
	for i, p := range ptrs {
		if p == nil {
			continue
		}
		target := reflect.ValueOf(p)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("unpack target %d is %T, want a non-nil pointer", i, p)
		}
		dst := target.Elem()

		v := r.values[i]
		if v == nil {
			dst.Set(reflect.Zero(dst.Type()))
			continue
		}
		src := reflect.ValueOf(v)
		if !src.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("field %q is %T, cannot unpack into %s", r.names[i], v, dst.Type())
		}
		dst.Set(src)
	}
	return nil
}

func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString("Record with fields:")
	for _, name := range r.names {
		sb.WriteString("\n  ")
		sb.WriteString(name)
	}
	return sb.String()
}

func (r *Record) GoString() string {
	quoted := make([]string, len(r.names))
	for i, name := range r.names {
		quoted[i] = "'" + name + "'"
	}
	return "<Record(" + strings.Join(quoted, ", ") + ")>"
}
