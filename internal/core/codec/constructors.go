package codec

import (
	"fmt"

	"github.com/zeusync/ppersist/internal/core/schema/registry"
	"github.com/zeusync/ppersist/pkg/value"
)

type ctorFunc func(args []any, kwargs map[string]any) (any, error)

// class is what a global node resolves to: a tag bound to a constructor.
type class struct {
	tag  registry.Tag
	call ctorFunc
}

func (c *class) String() string { return "<class " + c.tag.String() + ">" }

// placement is the column range a block covers.
type placement struct {
	start, stop, step int
}

func (p placement) positions(n int) ([]int, error) {
	if p.step <= 0 {
		return nil, fmt.Errorf("block placement step %d is not positive", p.step)
	}
	out := make([]int, 0, n)
	for i := p.start; i < p.stop && len(out) <= n; i += p.step {
		out = append(out, i)
	}
	if len(out) != n {
		return nil, fmt.Errorf("block placement covers %d columns, block has %d", len(out), n)
	}
	return out, nil
}

type block struct {
	values *value.Array
	place  placement
	ndim   int
}

type manager struct {
	axes   []*value.Index
	blocks []*block
}

// isInternal reports values that only make sense as constructor arguments.
func isInternal(v any) bool {
	switch v.(type) {
	case *class, placement, *block, *manager, value.DType, value.Range:
		return true
	default:
		return false
	}
}

// constructors backs every tag in the default allow-list.
var constructors = map[registry.Tag]ctorFunc{
	registry.TagComplex:   newComplex,
	registry.TagSet:       newSet,
	registry.TagFrozenSet: newFrozenSet,
	registry.TagRange:     newRange,
	registry.TagSlice:     newSlice,

	registry.TagPartial: newPartial,

	registry.TagNDArray:     newNDArray,
	registry.TagDType:       newDType,
	registry.TagScalar:      newScalar,
	registry.TagFromBuffer:  newFromBuffer,
	registry.TagReconstruct: newReconstruct,

	registry.TagDataFrame:          newDataFrame,
	registry.TagSeries:             newSeries,
	registry.TagIndex:              newIndexFromValues,
	registry.TagRangeIndex:         newIndexFromRange,
	registry.TagNewIndex:           newIndexFromState,
	registry.TagSingleBlockManager: newSingleBlockManager,
	registry.TagBlockManager:       newBlockManager,
	registry.TagNewBlock:           newBlock,
	registry.TagRestoreBlock:       restoreBlock,
}

// args gives typed access to constructor arguments.
type args struct {
	tag  registry.Tag
	vals []any
}

func (a args) count(lo, hi int) error {
	if len(a.vals) < lo || len(a.vals) > hi {
		if lo == hi {
			return fmt.Errorf("%s takes %d arguments, got %d", a.tag, lo, len(a.vals))
		}
		return fmt.Errorf("%s takes %d to %d arguments, got %d", a.tag, lo, hi, len(a.vals))
	}
	return nil
}

func argAs[T any](a args, i int, want string) (T, error) {
	v, ok := a.vals[i].(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s argument %d is %T, want %s", a.tag, i, a.vals[i], want)
	}
	return v, nil
}

func (a args) ints(i int) ([]int, error) {
	t, err := argAs[value.Tuple](a, i, "tuple of ints")
	if err != nil {
		return nil, err
	}
	out := make([]int, len(t))
	for j, v := range t {
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("%s argument %d element %d is %T, want int", a.tag, i, j, v)
		}
		out[j] = n
	}
	return out, nil
}

func (a args) name(v any) (string, error) {
	switch n := v.(type) {
	case nil:
		return "", nil
	case string:
		return n, nil
	default:
		return "", fmt.Errorf("%s name is %T, want string or none", a.tag, v)
	}
}

func (a args) three() (int, int, int, error) {
	if err := a.count(3, 3); err != nil {
		return 0, 0, 0, err
	}
	var out [3]int
	for i := range out {
		n, err := argAs[int](a, i, "int")
		if err != nil {
			return 0, 0, 0, err
		}
		out[i] = n
	}
	return out[0], out[1], out[2], nil
}

func newComplex(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagComplex, vals}
	if err := a.count(2, 2); err != nil {
		return nil, err
	}
	re, err := argAs[float64](a, 0, "float")
	if err != nil {
		return nil, err
	}
	im, err := argAs[float64](a, 1, "float")
	if err != nil {
		return nil, err
	}
	return complex(re, im), nil
}

func setItems(a args) ([]any, error) {
	if err := a.count(1, 1); err != nil {
		return nil, err
	}
	return argAs[[]any](a, 0, "list")
}

func newSet(vals []any, _ map[string]any) (any, error) {
	items, err := setItems(args{registry.TagSet, vals})
	if err != nil {
		return nil, err
	}
	return value.NewSet(items...)
}

func newFrozenSet(vals []any, _ map[string]any) (any, error) {
	items, err := setItems(args{registry.TagFrozenSet, vals})
	if err != nil {
		return nil, err
	}
	return value.NewFrozenSet(items...)
}

func newRange(vals []any, _ map[string]any) (any, error) {
	start, stop, step, err := args{registry.TagRange, vals}.three()
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, fmt.Errorf("range step must not be zero")
	}
	return value.Range{Start: start, Stop: stop, Step: step}, nil
}

func newSlice(vals []any, _ map[string]any) (any, error) {
	start, stop, step, err := args{registry.TagSlice, vals}.three()
	if err != nil {
		return nil, err
	}
	return placement{start: start, stop: stop, step: step}, nil
}

// newPartial binds keyword arguments to a constructor.
func newPartial(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagPartial, vals}
	if err := a.count(1, 2); err != nil {
		return nil, err
	}
	target, err := argAs[*class](a, 0, "class")
	if err != nil {
		return nil, err
	}
	bound := map[string]any{}
	if len(vals) == 2 {
		if bound, err = argAs[map[string]any](a, 1, "dict"); err != nil {
			return nil, err
		}
	}
	return &class{
		tag: target.tag,
		call: func(callArgs []any, kwargs map[string]any) (any, error) {
			merged := make(map[string]any, len(bound)+len(kwargs))
			for k, v := range bound {
				merged[k] = v
			}
			for k, v := range kwargs {
				merged[k] = v
			}
			return target.call(callArgs, merged)
		},
	}, nil
}

func newDType(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagDType, vals}
	if err := a.count(1, 1); err != nil {
		return nil, err
	}
	code, err := argAs[string](a, 0, "string")
	if err != nil {
		return nil, err
	}
	return value.ParseDType(code)
}

// newNDArray refuses direct calls. The class only names the array type
// rebuilt by reconstruct.
func newNDArray(_ []any, _ map[string]any) (any, error) {
	return nil, fmt.Errorf("%s can only be rebuilt through %s", registry.TagNDArray, registry.TagReconstruct)
}

func newScalar(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagScalar, vals}
	if err := a.count(2, 2); err != nil {
		return nil, err
	}
	dt, err := argAs[value.DType](a, 0, "dtype")
	if err != nil {
		return nil, err
	}
	raw, err := argAs[[]byte](a, 1, "bytes")
	if err != nil {
		return nil, err
	}
	arr, err := value.FromBuffer(dt, nil, raw)
	if err != nil {
		return nil, err
	}
	return arr.At(0), nil
}

func newFromBuffer(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagFromBuffer, vals}
	if err := a.count(3, 3); err != nil {
		return nil, err
	}
	raw, err := argAs[[]byte](a, 0, "bytes")
	if err != nil {
		return nil, err
	}
	dt, err := argAs[value.DType](a, 1, "dtype")
	if err != nil {
		return nil, err
	}
	shape, err := a.ints(2)
	if err != nil {
		return nil, err
	}
	return value.FromBuffer(dt, shape, raw)
}

func newReconstruct(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagReconstruct, vals}
	if err := a.count(4, 4); err != nil {
		return nil, err
	}
	cls, err := argAs[*class](a, 0, "class")
	if err != nil {
		return nil, err
	}
	if cls.tag != registry.TagNDArray {
		return nil, fmt.Errorf("%s cannot rebuild %s", a.tag, cls.tag)
	}
	shape, err := a.ints(1)
	if err != nil {
		return nil, err
	}
	dt, err := argAs[value.DType](a, 2, "dtype")
	if err != nil {
		return nil, err
	}
	items, err := argAs[[]any](a, 3, "list")
	if err != nil {
		return nil, err
	}
	for i, it := range items {
		if isInternal(it) {
			return nil, fmt.Errorf("%s element %d is %T", a.tag, i, it)
		}
	}
	return value.FromElements(dt, shape, items)
}

func newIndexFromValues(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagIndex, vals}
	if err := a.count(2, 2); err != nil {
		return nil, err
	}
	data, err := argAs[*value.Array](a, 0, "array")
	if err != nil {
		return nil, err
	}
	name, err := a.name(vals[1])
	if err != nil {
		return nil, err
	}
	return value.NewIndex(data, name)
}

func newIndexFromRange(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagRangeIndex, vals}
	if err := a.count(2, 2); err != nil {
		return nil, err
	}
	r, err := argAs[value.Range](a, 0, "range")
	if err != nil {
		return nil, err
	}
	name, err := a.name(vals[1])
	if err != nil {
		return nil, err
	}
	return value.NewRangeIndex(r.Start, r.Stop, r.Step, name)
}

// newIndexFromState rebuilds an index class from its state dict.
func newIndexFromState(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagNewIndex, vals}
	if err := a.count(2, 2); err != nil {
		return nil, err
	}
	cls, err := argAs[*class](a, 0, "class")
	if err != nil {
		return nil, err
	}
	state, err := argAs[map[string]any](a, 1, "dict")
	if err != nil {
		return nil, err
	}
	switch cls.tag {
	case registry.TagIndex:
		return cls.call([]any{state["data"], state["name"]}, nil)
	case registry.TagRangeIndex:
		return cls.call([]any{state["range"], state["name"]}, nil)
	default:
		return nil, fmt.Errorf("%s cannot rebuild %s", a.tag, cls.tag)
	}
}

func blockFrom(a args, ndim any) (any, error) {
	values, err := argAs[*value.Array](a, 0, "array")
	if err != nil {
		return nil, err
	}
	place, err := argAs[placement](a, 1, "slice")
	if err != nil {
		return nil, err
	}
	n, ok := ndim.(int)
	if !ok || (n != 1 && n != 2) {
		return nil, fmt.Errorf("%s ndim is %v, want 1 or 2", a.tag, ndim)
	}
	if values.NDim() != n {
		return nil, fmt.Errorf("%s values have %d dimensions, ndim says %d", a.tag, values.NDim(), n)
	}
	return &block{values: values, place: place, ndim: n}, nil
}

func newBlock(vals []any, kwargs map[string]any) (any, error) {
	a := args{registry.TagNewBlock, vals}
	if err := a.count(2, 3); err != nil {
		return nil, err
	}
	ndim := kwargs["ndim"]
	if len(vals) == 3 {
		ndim = vals[2]
	}
	return blockFrom(a, ndim)
}

func restoreBlock(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagRestoreBlock, vals}
	if err := a.count(3, 3); err != nil {
		return nil, err
	}
	return blockFrom(a, vals[2])
}

func managerParts(a args, axes int) ([]*value.Index, error) {
	list, err := argAs[[]any](a, 0, "list of indexes")
	if err != nil {
		return nil, err
	}
	if len(list) != axes {
		return nil, fmt.Errorf("%s has %d axes, want %d", a.tag, len(list), axes)
	}
	out := make([]*value.Index, len(list))
	for i, v := range list {
		x, ok := v.(*value.Index)
		if !ok {
			return nil, fmt.Errorf("%s axis %d is %T, want index", a.tag, i, v)
		}
		out[i] = x
	}
	return out, nil
}

func newBlockManager(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagBlockManager, vals}
	if err := a.count(2, 2); err != nil {
		return nil, err
	}
	axes, err := managerParts(a, 2)
	if err != nil {
		return nil, err
	}
	list, err := argAs[[]any](a, 1, "list of blocks")
	if err != nil {
		return nil, err
	}
	blocks := make([]*block, len(list))
	for i, v := range list {
		b, ok := v.(*block)
		if !ok {
			return nil, fmt.Errorf("%s block %d is %T", a.tag, i, v)
		}
		blocks[i] = b
	}
	return &manager{axes: axes, blocks: blocks}, nil
}

func newSingleBlockManager(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagSingleBlockManager, vals}
	if err := a.count(2, 2); err != nil {
		return nil, err
	}
	axes, err := managerParts(a, 1)
	if err != nil {
		return nil, err
	}
	b, err := argAs[*block](a, 1, "block")
	if err != nil {
		return nil, err
	}
	return &manager{axes: axes, blocks: []*block{b}}, nil
}

func newDataFrame(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagDataFrame, vals}
	if err := a.count(1, 1); err != nil {
		return nil, err
	}
	m, err := argAs[*manager](a, 0, "block manager")
	if err != nil {
		return nil, err
	}
	if len(m.axes) != 2 {
		return nil, fmt.Errorf("%s needs a two-axis manager", a.tag)
	}
	if _, isRange := m.axes[0].Range(); isRange {
		return nil, fmt.Errorf("%s column labels must be an explicit index", a.tag)
	}
	names, ok := value.Values[string](m.axes[0].Values())
	if !ok {
		return nil, fmt.Errorf("%s column labels are %s, want string", a.tag, m.axes[0].Values().DType())
	}

	cols := make([]*value.Array, len(names))
	for _, b := range m.blocks {
		if b.ndim != 2 {
			return nil, fmt.Errorf("%s block has ndim %d", a.tag, b.ndim)
		}
		rows, err := value.Unstack(b.values)
		if err != nil {
			return nil, err
		}
		positions, err := b.place.positions(len(rows))
		if err != nil {
			return nil, err
		}
		for j, pos := range positions {
			if pos < 0 || pos >= len(cols) {
				return nil, fmt.Errorf("%s block places a column at %d of %d", a.tag, pos, len(cols))
			}
			if cols[pos] != nil {
				return nil, fmt.Errorf("%s column %q is placed twice", a.tag, names[pos])
			}
			cols[pos] = rows[j]
		}
	}

	columns := make([]value.Column, len(names))
	for i, name := range names {
		if cols[i] == nil {
			return nil, fmt.Errorf("%s column %q has no block", a.tag, name)
		}
		columns[i] = value.Column{Name: name, Values: cols[i]}
	}
	return value.NewFrame(m.axes[1], columns...)
}

func newSeries(vals []any, _ map[string]any) (any, error) {
	a := args{registry.TagSeries, vals}
	if err := a.count(2, 2); err != nil {
		return nil, err
	}
	m, err := argAs[*manager](a, 0, "single block manager")
	if err != nil {
		return nil, err
	}
	if len(m.axes) != 1 || len(m.blocks) != 1 {
		return nil, fmt.Errorf("%s needs a single-block manager", a.tag)
	}
	b := m.blocks[0]
	if b.ndim != 1 {
		return nil, fmt.Errorf("%s block has ndim %d", a.tag, b.ndim)
	}
	if _, err := b.place.positions(b.values.Len()); err != nil {
		return nil, err
	}
	name, err := a.name(vals[1])
	if err != nil {
		return nil, err
	}
	return value.NewSeries(name, b.values, m.axes[0])
}
