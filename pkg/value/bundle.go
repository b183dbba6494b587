package value

import "regexp"

// NamesKey is the reserved bundle entry that records key order on the wire.
const NamesKey = "__names__"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether name is an identifier usable as a bundle key.
func ValidName(name string) bool {
	return identifierPattern.MatchString(name)
}

// Bundle is an insertion-ordered mapping from names to values: the unit of save and load.
type Bundle struct {
	names  []string
	values map[string]any
}

func NewBundle() *Bundle {
	return &Bundle{values: make(map[string]any)}
}

// BundleOf builds a bundle from alternating name, value arguments.
// It panics if a name is not a string, which is a programming error.
func BundleOf(pairs ...any) *Bundle {
	if len(pairs)%2 != 0 {
		panic("value: BundleOf needs name/value pairs")
	}
	b := NewBundle()
	for i := 0; i < len(pairs); i += 2 {
		b.Set(pairs[i].(string), pairs[i+1])
	}
	return b
}

// Set stores v under name. Replacing an existing name keeps its position.
func (b *Bundle) Set(name string, v any) {
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = v
}

func (b *Bundle) Get(name string) (any, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Delete removes name, preserving the order of the remaining entries.
func (b *Bundle) Delete(name string) {
	if _, ok := b.values[name]; !ok {
		return
	}
	delete(b.values, name)
	for i, n := range b.names {
		if n == name {
			b.names = append(b.names[:i], b.names[i+1:]...)
			break
		}
	}
}

func (b *Bundle) Len() int { return len(b.names) }

// Names returns the keys in insertion order.
func (b *Bundle) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Map copies the entries into a plain map.
func (b *Bundle) Map() map[string]any {
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}
