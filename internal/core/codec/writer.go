package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/ppersist/internal/core/schema/registry"
	"github.com/zeusync/ppersist/pkg/generic"
)

var writers = generic.NewPool(newWriter, (*writer).reset)

// writer emits nodes into a msgpack stream. The first error sticks and turns
// every later call into a no-op.
type writer struct {
	buf bytes.Buffer
	enc *msgpack.Encoder
	err error
}

func newWriter() *writer {
	w := &writer{}
	w.enc = msgpack.NewEncoder(&w.buf)
	return w
}

func (w *writer) reset() {
	w.buf.Reset()
	w.enc.Reset(&w.buf)
	w.err = nil
}

func (w *writer) kind(k kind) {
	if w.err == nil {
		w.err = w.enc.EncodeUint8(uint8(k))
	}
}

func (w *writer) none() {
	w.kind(kindNone)
}

func (w *writer) boolean(b bool) {
	w.kind(kindBool)
	if w.err == nil {
		w.err = w.enc.EncodeBool(b)
	}
}

func (w *writer) integer(i int64) {
	w.kind(kindInt)
	if w.err == nil {
		w.err = w.enc.EncodeInt(i)
	}
}

func (w *writer) float(f float64) {
	w.kind(kindFloat)
	if w.err == nil {
		w.err = w.enc.EncodeFloat64(f)
	}
}

func (w *writer) str(s string) {
	w.kind(kindString)
	if w.err == nil {
		w.err = w.enc.EncodeString(s)
	}
}

func (w *writer) raw(b []byte) {
	w.kind(kindBytes)
	if w.err == nil {
		w.err = w.enc.EncodeBytes(b)
	}
}

func (w *writer) list(n int) {
	w.kind(kindList)
	if w.err == nil {
		w.err = w.enc.EncodeArrayLen(n)
	}
}

func (w *writer) tuple(n int) {
	w.kind(kindTuple)
	if w.err == nil {
		w.err = w.enc.EncodeArrayLen(n)
	}
}

// dict starts a dict node; the caller writes n raw key strings, each followed by a node.
func (w *writer) dict(n int) {
	w.kind(kindDict)
	if w.err == nil {
		w.err = w.enc.EncodeMapLen(n)
	}
}

func (w *writer) key(k string) {
	if w.err == nil {
		w.err = w.enc.EncodeString(k)
	}
}

func (w *writer) global(tag registry.Tag) {
	w.kind(kindGlobal)
	if w.err == nil {
		w.err = w.enc.EncodeString(tag.Namespace)
	}
	if w.err == nil {
		w.err = w.enc.EncodeString(tag.Name)
	}
}

// call writes reduce(global(tag), tuple(n)); the caller writes the n arguments.
func (w *writer) call(tag registry.Tag, n int) {
	w.kind(kindReduce)
	w.global(tag)
	w.tuple(n)
}

func (w *writer) ints(vals ...int) {
	w.tuple(len(vals))
	for _, v := range vals {
		w.integer(int64(v))
	}
}

func (w *writer) bytesOut() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}
