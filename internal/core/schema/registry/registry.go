// Package registry holds the allow-list of type tags the decoder may construct.
//
// The default registry is a closed literal table. Widening it requires a code
// change here; there is no configuration or runtime hook that adds tags.
package registry

import (
	"slices"
	"strings"
)

// Tag identifies a constructor in a blob: a namespace plus a type or function name.
type Tag struct {
	Namespace string
	Name      string
}

func (t Tag) String() string {
	return t.Namespace + "." + t.Name
}

// Compare orders tags by namespace, then name.
func (t Tag) Compare(o Tag) int {
	if c := strings.Compare(t.Namespace, o.Namespace); c != 0 {
		return c
	}
	return strings.Compare(t.Name, o.Name)
}

const (
	NamespaceBuiltins  = "builtins"
	NamespaceFunctools = "functools"
	NamespaceNDArray   = "ndarray"
	NamespaceTable     = "table"
)

var (
	TagComplex   = Tag{NamespaceBuiltins, "complex"}
	TagSet       = Tag{NamespaceBuiltins, "set"}
	TagFrozenSet = Tag{NamespaceBuiltins, "frozenset"}
	TagRange     = Tag{NamespaceBuiltins, "range"}
	TagSlice     = Tag{NamespaceBuiltins, "slice"}

	TagPartial = Tag{NamespaceFunctools, "partial"}

	TagNDArray     = Tag{NamespaceNDArray, "ndarray"}
	TagDType       = Tag{NamespaceNDArray, "dtype"}
	TagScalar      = Tag{NamespaceNDArray, "scalar"}
	TagFromBuffer  = Tag{NamespaceNDArray, "frombuffer"}
	TagReconstruct = Tag{NamespaceNDArray, "reconstruct"}

	TagDataFrame          = Tag{NamespaceTable, "DataFrame"}
	TagSeries             = Tag{NamespaceTable, "Series"}
	TagIndex              = Tag{NamespaceTable, "Index"}
	TagRangeIndex         = Tag{NamespaceTable, "RangeIndex"}
	TagNewIndex           = Tag{NamespaceTable, "newIndex"}
	TagSingleBlockManager = Tag{NamespaceTable, "SingleBlockManager"}
	TagBlockManager       = Tag{NamespaceTable, "BlockManager"}
	TagNewBlock           = Tag{NamespaceTable, "newBlock"}
	TagRestoreBlock       = Tag{NamespaceTable, "restoreBlock"}
)

// allowed is the whole trust boundary of the decoder.
var allowed = [...]Tag{
	TagComplex,
	TagSet,
	TagFrozenSet,
	TagRange,
	TagSlice,

	TagPartial,

	TagNDArray,
	TagDType,
	TagScalar,
	TagFromBuffer,
	TagReconstruct,

	TagDataFrame,
	TagSeries,
	TagIndex,
	TagRangeIndex,
	TagNewIndex,
	TagSingleBlockManager,
	TagBlockManager,
	TagNewBlock,
	TagRestoreBlock,
}

var defaultRegistry = New(allowed[:]...)

// Registry is an immutable set of allowed tags. It is safe for concurrent use.
type Registry struct {
	tags map[Tag]struct{}
}

// Default returns the process-wide allow-list.
func Default() *Registry {
	return defaultRegistry
}

// Empty returns a registry that allows nothing.
func Empty() *Registry {
	return New()
}

// New builds a registry over exactly the given tags. Production code uses
// Default; New exists for substitute registries in tests.
func New(tags ...Tag) *Registry {
	r := &Registry{tags: make(map[Tag]struct{}, len(tags))}
	for _, t := range tags {
		r.tags[t] = struct{}{}
	}
	return r
}

// IsAllowed reports whether the decoder may construct tag.
func (r *Registry) IsAllowed(tag Tag) bool {
	if r == nil {
		return false
	}
	_, ok := r.tags[tag]
	return ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tags)
}

// Tags lists the allowed tags in sorted order.
func (r *Registry) Tags() []Tag {
	if r == nil {
		return nil
	}
	out := make([]Tag, 0, len(r.tags))
	for t := range r.tags {
		out = append(out, t)
	}
	slices.SortFunc(out, Tag.Compare)
	return out
}
