package codec

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/ppersist/internal/core/observability/log"
	"github.com/zeusync/ppersist/internal/core/schema/registry"
	"github.com/zeusync/ppersist/pkg/value"
)

// Encoder turns bundles into blobs.
type Encoder struct {
	logger log.Log
}

type EncoderOption func(*Encoder)

func WithEncoderLogger(l log.Log) EncoderOption {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{logger: log.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode validates every entry of b and serializes it. Nothing is produced
// unless all names are identifiers and all values pass the classifier.
func (e *Encoder) Encode(b *value.Bundle) ([]byte, error) {
	return e.encode(b, true)
}

// EncodeUnchecked serializes b without classifying its values: arbitrary Go
// values are written as tagged objects that a gated decoder will reject.
// It is unsafe by design and exists to exercise the decoder's rejection path.
// Names are still validated.
func (e *Encoder) EncodeUnchecked(b *value.Bundle) ([]byte, error) {
	return e.encode(b, false)
}

func (e *Encoder) encode(b *value.Bundle, checked bool) ([]byte, error) {
	if b == nil {
		b = value.NewBundle()
	}
	names := b.Names()
	if err := validate(b, names, checked); err != nil {
		return nil, err
	}

	w := writers.Get()
	defer writers.Put(w)

	w.dict(len(names) + 1)
	for _, name := range names {
		v, _ := b.Get(name)
		w.key(name)
		if err := encodeValue(w, v); err != nil {
			return nil, NewValidationError(name, "cannot encode value", err)
		}
	}
	w.key(value.NamesKey)
	w.list(len(names))
	for _, name := range names {
		w.str(name)
	}

	body, err := w.bytesOut()
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}

	e.logger.Debug("Encoded bundle",
		log.Strings("names", names),
		log.Bool("checked", checked),
		log.Int("body_size", len(body)))

	return frame(body), nil
}

func validate(b *value.Bundle, names []string, checked bool) error {
	for _, name := range names {
		if !value.ValidName(name) {
			return NewValidationError(name, "invalid name", nil)
		}
		if name == value.NamesKey {
			return NewValidationError(name, "reserved name", nil)
		}
		if !checked {
			continue
		}
		v, _ := b.Get(name)
		if err := value.Check(v); err != nil {
			return NewValidationError(name, "unsupported value", err)
		}
	}
	return nil
}

func encodeValue(w *writer, v any) error {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		w.none()
		return w.err
	}

	switch x := v.(type) {
	case nil:
		w.none()
	case bool:
		w.boolean(x)
	case int:
		w.integer(int64(x))
	case float64:
		w.float(x)
	case string:
		w.str(x)
	case int32:
		return encodeScalar(w, value.MustArray(nil, []int32{x}))
	case int64:
		return encodeScalar(w, value.MustArray(nil, []int64{x}))
	case float32:
		return encodeScalar(w, value.MustArray(nil, []float32{x}))
	case complex64:
		return encodeScalar(w, value.MustArray(nil, []complex64{x}))
	case complex128:
		w.call(registry.TagComplex, 2)
		w.float(real(x))
		w.float(imag(x))
	case *value.Array:
		return encodeArray(w, x)
	case *value.Index:
		return encodeIndex(w, x)
	case *value.Frame:
		return encodeFrame(w, x)
	case *value.Series:
		return encodeSeries(w, x)
	case []any:
		w.list(len(x))
		return encodeItems(w, x)
	case value.List:
		w.list(len(x))
		return encodeItems(w, x)
	case value.Tuple:
		w.tuple(len(x))
		return encodeItems(w, x)
	case *value.Set:
		w.call(registry.TagSet, 1)
		items := x.Items()
		w.list(len(items))
		return encodeItems(w, items)
	case *value.FrozenSet:
		w.call(registry.TagFrozenSet, 1)
		items := x.Items()
		w.list(len(items))
		return encodeItems(w, items)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w.dict(len(keys))
		for _, k := range keys {
			w.key(k)
			if err := encodeValue(w, x[k]); err != nil {
				return err
			}
		}
	default:
		return encodeObject(w, v)
	}
	return w.err
}

func encodeItems(w *writer, items []any) error {
	for _, it := range items {
		if err := encodeValue(w, it); err != nil {
			return err
		}
	}
	return w.err
}

// encodeObject writes a value outside the supported universe as its Go type tag
// applied to a msgpack payload. Only the unchecked path reaches it.
func encodeObject(w *writer, v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", v, err)
	}
	w.call(TagOf(v), 1)
	w.raw(payload)
	return w.err
}

func encodeDType(w *writer, dt value.DType) {
	w.call(registry.TagDType, 1)
	w.str(dt.Code())
}

func encodeScalar(w *writer, a *value.Array) error {
	buf, err := a.Buffer()
	if err != nil {
		return err
	}
	w.call(registry.TagScalar, 2)
	encodeDType(w, a.DType())
	w.raw(buf)
	return w.err
}

func encodeArray(w *writer, a *value.Array) error {
	if a.DType().Numeric() {
		buf, err := a.Buffer()
		if err != nil {
			return err
		}
		w.call(registry.TagFromBuffer, 3)
		w.raw(buf)
		encodeDType(w, a.DType())
		w.ints(a.Shape()...)
		return w.err
	}

	items := a.Items()
	w.call(registry.TagReconstruct, 4)
	w.global(registry.TagNDArray)
	w.ints(a.Shape()...)
	encodeDType(w, a.DType())
	w.list(len(items))
	return encodeItems(w, items)
}

func encodeName(w *writer, name string) {
	if name == "" {
		w.none()
		return
	}
	w.str(name)
}

func encodeIndex(w *writer, x *value.Index) error {
	w.call(registry.TagNewIndex, 2)
	if r, ok := x.Range(); ok {
		w.global(registry.TagRangeIndex)
		w.dict(2)
		w.key("name")
		encodeName(w, x.Name())
		w.key("range")
		w.call(registry.TagRange, 3)
		w.integer(int64(r.Start))
		w.integer(int64(r.Stop))
		w.integer(int64(r.Step))
		return w.err
	}

	w.global(registry.TagIndex)
	w.dict(2)
	w.key("data")
	if err := encodeArray(w, x.Values()); err != nil {
		return err
	}
	w.key("name")
	encodeName(w, x.Name())
	return w.err
}

func encodeSlice(w *writer, start, stop, step int) {
	w.call(registry.TagSlice, 3)
	w.integer(int64(start))
	w.integer(int64(stop))
	w.integer(int64(step))
}

// encodeFrame writes a block manager in which each run of adjacent columns
// sharing a dtype is stored as one 2-D block.
func encodeFrame(w *writer, f *value.Frame) error {
	columns, err := value.NewIndex(value.Vector(f.Columns()...), "")
	if err != nil {
		return err
	}

	type run struct{ start, stop int }
	var runs []run
	for i := 0; i < f.NumCols(); i++ {
		dt := f.ColumnAt(i).Values.DType()
		if len(runs) > 0 && f.ColumnAt(runs[len(runs)-1].start).Values.DType() == dt {
			runs[len(runs)-1].stop = i + 1
			continue
		}
		runs = append(runs, run{start: i, stop: i + 1})
	}

	w.call(registry.TagDataFrame, 1)
	w.call(registry.TagBlockManager, 2)

	w.list(2)
	if err := encodeIndex(w, columns); err != nil {
		return err
	}
	if err := encodeIndex(w, f.Index()); err != nil {
		return err
	}

	w.list(len(runs))
	for _, r := range runs {
		cols := make([]*value.Array, 0, r.stop-r.start)
		for i := r.start; i < r.stop; i++ {
			cols = append(cols, f.ColumnAt(i).Values)
		}
		values, err := value.Stack(cols)
		if err != nil {
			return err
		}
		w.call(registry.TagRestoreBlock, 3)
		if err := encodeArray(w, values); err != nil {
			return err
		}
		encodeSlice(w, r.start, r.stop, 1)
		w.integer(2)
	}
	return w.err
}

// encodeSeries writes a single-block manager whose block is built through
// partial(newBlock, ndim=1).
func encodeSeries(w *writer, s *value.Series) error {
	w.call(registry.TagSeries, 2)
	w.call(registry.TagSingleBlockManager, 2)

	w.list(1)
	if err := encodeIndex(w, s.Index()); err != nil {
		return err
	}

	w.kind(kindReduce)
	w.call(registry.TagPartial, 2)
	w.global(registry.TagNewBlock)
	w.dict(1)
	w.key("ndim")
	w.integer(1)
	w.tuple(2)
	if err := encodeArray(w, s.Values()); err != nil {
		return err
	}
	encodeSlice(w, 0, s.Len(), 1)

	encodeName(w, s.Name())
	return w.err
}
