package codec

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Blob layout:
// [4 bytes: magic "PPST"]
// [1 byte: format version]
// [1 byte: flags, reserved]
// [2 bytes: reserved]
// [8 bytes: body length]
// [8 bytes: xxhash64 of body]
// [N bytes: body, a stream of msgpack-encoded nodes]

const (
	FormatVersion = 1
	HeaderSize    = 4 + 1 + 1 + 2 + 8 + 8
)

var magic = [4]byte{'P', 'P', 'S', 'T'}

// kind is the first item of every node in the body.
type kind uint8

const (
	kindNone kind = iota
	kindBool
	kindInt
	kindFloat
	kindString
	kindBytes
	kindList
	kindTuple
	kindDict
	kindGlobal
	kindReduce
	kindCount
)

func (k kind) String() string {
	switch k {
	case kindNone:
		return "none"
	case kindBool:
		return "bool"
	case kindInt:
		return "int"
	case kindFloat:
		return "float"
	case kindString:
		return "string"
	case kindBytes:
		return "bytes"
	case kindList:
		return "list"
	case kindTuple:
		return "tuple"
	case kindDict:
		return "dict"
	case kindGlobal:
		return "global"
	case kindReduce:
		return "reduce"
	default:
		return "invalid"
	}
}

func frame(body []byte) []byte {
	out := make([]byte, HeaderSize+len(body))
	offset := 0

	copy(out[offset:], magic[:])
	offset += 4

	out[offset] = FormatVersion
	offset += 1

	// flags and reserved bytes stay zero
	offset += 3

	binary.BigEndian.PutUint64(out[offset:], uint64(len(body)))
	offset += 8

	binary.BigEndian.PutUint64(out[offset:], xxhash.Sum64(body))
	offset += 8

	copy(out[offset:], body)
	return out
}

// unframe checks the header and returns the body.
func unframe(blob []byte) ([]byte, error) {
	if len(blob) < HeaderSize {
		return nil, decodeErrorf("blob of %d bytes is shorter than the %d byte header", len(blob), HeaderSize)
	}
	if !bytes.Equal(blob[:4], magic[:]) {
		return nil, decodeErrorf("bad magic %q", blob[:4])
	}
	if v := blob[4]; v != FormatVersion {
		return nil, decodeErrorf("unsupported format version %d", v)
	}
	length := binary.BigEndian.Uint64(blob[8:16])
	body := blob[HeaderSize:]
	if length != uint64(len(body)) {
		return nil, decodeErrorf("header declares %d body bytes, blob has %d", length, len(body))
	}
	if sum := binary.BigEndian.Uint64(blob[16:24]); sum != xxhash.Sum64(body) {
		return nil, NewDecodeError("checksum mismatch", nil)
	}
	return body, nil
}
