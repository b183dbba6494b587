package value

import (
	"fmt"
	"math"
	"slices"
)

// Range is a half-open integer progression, as used by range indexes.
type Range struct {
	Start, Stop, Step int
}

// MaxRangeLen bounds range indexes to the element limit of arrays.
const MaxRangeLen = math.MaxInt32

// Len is the number of values the range yields, saturating at math.MaxInt.
func (r Range) Len() int {
	n := r.count()
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// count works in unsigned arithmetic so extreme bounds do not overflow.
func (r Range) count() uint64 {
	var span, step uint64
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		span, step = uint64(r.Stop)-uint64(r.Start), uint64(r.Step)
	case r.Step < 0 && r.Start > r.Stop:
		span, step = uint64(r.Start)-uint64(r.Stop), uint64(-r.Step)
	default:
		return 0
	}
	return span/step + min(span%step, 1)
}

// Index labels the rows of a Frame or Series. It either holds explicit
// values or describes a range without materializing it.
type Index struct {
	name   string
	values *Array
	rng    *Range
}

// NewIndex builds an index over the values of a one-dimensional array.
func NewIndex(values *Array, name string) (*Index, error) {
	if values == nil {
		return nil, fmt.Errorf("index values are nil")
	}
	if values.NDim() != 1 {
		return nil, fmt.Errorf("index values must be 1-D, got shape %v", values.shape)
	}
	return &Index{name: name, values: values}, nil
}

// NewRangeIndex builds an index over start, start+step, ... up to stop.
func NewRangeIndex(start, stop, step int, name string) (*Index, error) {
	if step == 0 {
		return nil, fmt.Errorf("range index step must not be zero")
	}
	r := Range{Start: start, Stop: stop, Step: step}
	if r.count() > MaxRangeLen {
		return nil, fmt.Errorf("range index %d:%d:%d is too long", start, stop, step)
	}
	return &Index{name: name, rng: &r}, nil
}

// DefaultIndex is the range index 0..n.
func DefaultIndex(n int) *Index {
	return &Index{rng: &Range{Start: 0, Stop: n, Step: 1}}
}

func (x *Index) Name() string { return x.name }

func (x *Index) Len() int {
	if x.rng != nil {
		return x.rng.Len()
	}
	return x.values.Len()
}

// Range reports the range backing a range index.
func (x *Index) Range() (Range, bool) {
	if x.rng == nil {
		return Range{}, false
	}
	return *x.rng, true
}

// Values returns the index labels, materializing a range index as int64.
func (x *Index) Values() *Array {
	if x.rng == nil {
		return x.values
	}
	out := make([]int64, 0, x.rng.Len())
	for i := 0; i < x.rng.Len(); i++ {
		out = append(out, int64(x.rng.Start+i*x.rng.Step))
	}
	return Vector(out...)
}

// Column is a named one-dimensional array inside a Frame.
type Column struct {
	Name   string
	Values *Array
}

// Frame is a table of named, equally long columns sharing one row index.
type Frame struct {
	index   *Index
	columns []Column
}

// NewFrame validates the columns against the index. A nil index becomes the
// default range index over the column length.
func NewFrame(index *Index, columns ...Column) (*Frame, error) {
	if index == nil {
		n := 0
		if len(columns) > 0 && columns[0].Values != nil {
			n = columns[0].Values.Len()
		}
		index = DefaultIndex(n)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c.Values == nil {
			return nil, fmt.Errorf("column %q has no values", c.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Values.NDim() != 1 {
			return nil, fmt.Errorf("column %q must be 1-D, got shape %v", c.Name, c.Values.shape)
		}
		if c.Values.Len() != index.Len() {
			return nil, fmt.Errorf("column %q has %d rows, index has %d", c.Name, c.Values.Len(), index.Len())
		}
	}
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Frame{index: index, columns: cols}, nil
}

func (f *Frame) Index() *Index { return f.index }

func (f *Frame) NumRows() int { return f.index.Len() }

func (f *Frame) NumCols() int { return len(f.columns) }

// Columns lists the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnAt returns the i-th column.
func (f *Frame) ColumnAt(i int) Column { return f.columns[i] }

// Column looks a column up by name.
func (f *Frame) Column(name string) (*Array, bool) {
	i := slices.IndexFunc(f.columns, func(c Column) bool { return c.Name == name })
	if i < 0 {
		return nil, false
	}
	return f.columns[i].Values, true
}

// Series is one named column with its own row index.
type Series struct {
	name   string
	values *Array
	index  *Index
}

// NewSeries validates values against the index. A nil index becomes the default range index.
func NewSeries(name string, values *Array, index *Index) (*Series, error) {
	if values == nil {
		return nil, fmt.Errorf("series values are nil")
	}
	if values.NDim() != 1 {
		return nil, fmt.Errorf("series values must be 1-D, got shape %v", values.shape)
	}
	if index == nil {
		index = DefaultIndex(values.Len())
	}
	if index.Len() != values.Len() {
		return nil, fmt.Errorf("series has %d values, index has %d", values.Len(), index.Len())
	}
	return &Series{name: name, values: values, index: index}, nil
}

func (s *Series) Name() string { return s.name }

func (s *Series) Values() *Array { return s.values }

func (s *Series) Index() *Index { return s.index }

func (s *Series) Len() int { return s.values.Len() }
