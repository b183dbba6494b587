package value

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"slices"
)

// Element lists the Go types an Array can hold directly.
type Element interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | complex64 | complex128 | string
}

// Array is a homogeneous N-dimensional array stored in row-major order.
// The backing slice is owned by the array; callers must not mutate slices
// obtained from Values or Data.
type Array struct {
	dtype DType
	shape []int
	data  any
}

// NewArray wraps data with the given shape. The product of shape must equal len(data).
// A nil or empty shape describes a zero-dimensional array holding one element.
func NewArray[T Element](shape []int, data []T) (*Array, error) {
	n, err := elementCount(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, n, len(data))
	}
	return &Array{
		dtype: dtypeOf[T](),
		shape: slices.Clone(normalizeShape(shape)),
		data:  cloneData(data),
	}, nil
}

// MustArray is NewArray that panics on a shape mismatch.
func MustArray[T Element](shape []int, data []T) *Array {
	a, err := NewArray(shape, data)
	if err != nil {
		panic(err)
	}
	return a
}

// Vector builds a one-dimensional array.
func Vector[T Element](data ...T) *Array {
	return MustArray([]int{len(data)}, data)
}

// NewObjectArray builds an array of arbitrary Go values. Object arrays are never
// saveable through the checked path; they exist for trusted decoding.
func NewObjectArray(shape []int, data []any) (*Array, error) {
	n, err := elementCount(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, n, len(data))
	}
	return &Array{
		dtype: Object,
		shape: slices.Clone(normalizeShape(shape)),
		data:  cloneData(data),
	}, nil
}

// FromBuffer decodes a little-endian raw buffer into a numeric array.
func FromBuffer(dt DType, shape []int, buf []byte) (*Array, error) {
	if !dt.Numeric() {
		return nil, fmt.Errorf("dtype %s has no buffer layout", dt)
	}
	n, err := elementCount(shape)
	if err != nil {
		return nil, err
	}
	if n > math.MaxInt/dt.ItemSize() || n*dt.ItemSize() != len(buf) {
		return nil, fmt.Errorf("buffer of %d bytes does not match shape %v of %s", len(buf), shape, dt)
	}
	data := makeSlice(dt, n)
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("read %s buffer: %w", dt, err)
	}
	return &Array{dtype: dt, shape: slices.Clone(normalizeShape(shape)), data: data}, nil
}

// FromElements builds a string or object array from already decoded elements.
func FromElements(dt DType, shape []int, items []any) (*Array, error) {
	switch dt {
	case String:
		strs := make([]string, len(items))
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("string array element %d is %T", i, it)
			}
			strs[i] = s
		}
		return NewArray(shape, strs)
	case Object:
		return NewObjectArray(shape, items)
	default:
		return nil, fmt.Errorf("dtype %s is not element-encoded", dt)
	}
}

// Values returns the backing slice when T matches the array dtype.
func Values[T Element](a *Array) ([]T, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.data.([]T)
	return v, ok
}

func (a *Array) DType() DType { return a.dtype }

func (a *Array) Shape() []int { return slices.Clone(a.shape) }

func (a *Array) NDim() int { return len(a.shape) }

// Len is the total number of elements.
func (a *Array) Len() int { return reflect.ValueOf(a.data).Len() }

// Data returns the backing slice ([]float64, []string, []any, ...).
func (a *Array) Data() any { return a.data }

// At returns the element at flat row-major position i.
func (a *Array) At(i int) any {
	return reflect.ValueOf(a.data).Index(i).Interface()
}

// Items returns the elements as a fresh []any.
func (a *Array) Items() []any {
	rv := reflect.ValueOf(a.data)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Buffer encodes a numeric array into its little-endian raw layout.
func (a *Array) Buffer() ([]byte, error) {
	if !a.dtype.Numeric() {
		return nil, fmt.Errorf("dtype %s has no buffer layout", a.dtype)
	}
	return binary.Append(make([]byte, 0, a.Len()*a.dtype.ItemSize()), binary.LittleEndian, a.data)
}

// Equal compares dtype, shape and contents. Numeric contents are compared bit for bit,
// so NaN payloads compare equal to themselves.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.dtype != b.dtype || !slices.Equal(a.shape, b.shape) {
		return false
	}
	if a.dtype.Numeric() {
		ab, err1 := a.Buffer()
		bb, err2 := b.Buffer()
		return err1 == nil && err2 == nil && bytes.Equal(ab, bb)
	}
	return reflect.DeepEqual(a.data, b.data)
}

func (a *Array) String() string {
	return fmt.Sprintf("array(%s, shape=%v)", a.dtype, a.shape)
}

// Stack joins equally long one-dimensional arrays of one dtype into a k×n array.
func Stack(cols []*Array) (*Array, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("stack of zero arrays")
	}
	first := cols[0]
	if first.NDim() != 1 {
		return nil, fmt.Errorf("stack needs 1-D arrays, got shape %v", first.shape)
	}
	n := first.shape[0]
	out := reflect.MakeSlice(reflect.TypeOf(first.data), 0, n*len(cols))
	for i, c := range cols {
		if c.dtype != first.dtype || c.NDim() != 1 || c.shape[0] != n {
			return nil, fmt.Errorf("stack: array %d is %s%v, want %s[%d]", i, c.dtype, c.shape, first.dtype, n)
		}
		out = reflect.AppendSlice(out, reflect.ValueOf(c.data))
	}
	return &Array{dtype: first.dtype, shape: []int{len(cols), n}, data: out.Interface()}, nil
}

// Unstack splits a k×n array into k one-dimensional arrays.
func Unstack(a *Array) ([]*Array, error) {
	if a.NDim() != 2 {
		return nil, fmt.Errorf("unstack needs a 2-D array, got shape %v", a.shape)
	}
	k, n := a.shape[0], a.shape[1]
	rv := reflect.ValueOf(a.data)
	out := make([]*Array, k)
	for i := range out {
		row := reflect.MakeSlice(rv.Type(), n, n)
		reflect.Copy(row, rv.Slice(i*n, (i+1)*n))
		out[i] = &Array{dtype: a.dtype, shape: []int{n}, data: row.Interface()}
	}
	return out, nil
}

func dtypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		return String
	}
}

func makeSlice(dt DType, n int) any {
	switch dt {
	case Bool:
		return make([]bool, n)
	case Int8:
		return make([]int8, n)
	case Int16:
		return make([]int16, n)
	case Int32:
		return make([]int32, n)
	case Int64:
		return make([]int64, n)
	case Uint8:
		return make([]uint8, n)
	case Uint16:
		return make([]uint16, n)
	case Uint32:
		return make([]uint32, n)
	case Uint64:
		return make([]uint64, n)
	case Float32:
		return make([]float32, n)
	case Float64:
		return make([]float64, n)
	case Complex64:
		return make([]complex64, n)
	case Complex128:
		return make([]complex128, n)
	case String:
		return make([]string, n)
	default:
		return make([]any, n)
	}
}

func cloneData[T any](d []T) []T {
	out := make([]T, len(d))
	copy(out, d)
	return out
}

func normalizeShape(shape []int) []int {
	if shape == nil {
		return []int{}
	}
	return shape
}

func elementCount(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension in shape %v", shape)
		}
		if d != 0 && n > math.MaxInt32/d {
			return 0, fmt.Errorf("shape %v is too large", shape)
		}
		n *= d
	}
	return n, nil
}
