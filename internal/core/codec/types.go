package codec

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/ppersist/internal/core/schema/registry"
)

// Opaque stands in for an object whose tag has no known Go type. Only trusted
// decoding produces it.
type Opaque struct {
	Tag  registry.Tag
	Args []any
}

func (o *Opaque) String() string {
	return fmt.Sprintf("<opaque %s>", o.Tag)
}

// TagOf derives the tag written for an arbitrary Go value: its package path and type name.
func TagOf(v any) registry.Tag {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return registry.Tag{}
	}
	if t.Name() == "" {
		return registry.Tag{Namespace: t.PkgPath(), Name: t.String()}
	}
	return registry.Tag{Namespace: t.PkgPath(), Name: t.Name()}
}

// TypeTable maps tags to Go types that trusted decoding may instantiate.
// It has no effect on gated decoding.
type TypeTable struct {
	mu    sync.RWMutex
	types map[registry.Tag]reflect.Type
}

func NewTypeTable() *TypeTable {
	return &TypeTable{types: make(map[registry.Tag]reflect.Type)}
}

// Register records the type of prototype under TagOf(prototype) and returns the tag.
func (tt *TypeTable) Register(prototype any) registry.Tag {
	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	tag := TagOf(prototype)

	tt.mu.Lock()
	tt.types[tag] = t
	tt.mu.Unlock()

	return tag
}

func (tt *TypeTable) lookup(tag registry.Tag) (reflect.Type, bool) {
	if tt == nil {
		return nil, false
	}
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	t, ok := tt.types[tag]
	return t, ok
}

// instantiate decodes a msgpack payload into a fresh value of t.
func instantiate(t reflect.Type, args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s takes one payload argument, got %d", t, len(args))
	}
	payload, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("%s payload is %T, want bytes", t, args[0])
	}
	ptr := reflect.New(t)
	if err := msgpack.Unmarshal(payload, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", t, err)
	}
	return ptr.Elem().Interface(), nil
}
