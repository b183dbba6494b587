package value

import "fmt"

// DType is the element type of an Array.
type DType uint8

const (
	Invalid DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
	String
	Object
)

var dtypeCodes = [...]string{
	Invalid:    "",
	Bool:       "|b1",
	Int8:       "|i1",
	Int16:      "<i2",
	Int32:      "<i4",
	Int64:      "<i8",
	Uint8:      "|u1",
	Uint16:     "<u2",
	Uint32:     "<u4",
	Uint64:     "<u8",
	Float32:    "<f4",
	Float64:    "<f8",
	Complex64:  "<c8",
	Complex128: "<c16",
	String:     "<U",
	Object:     "|O",
}

var dtypeSizes = [...]int{
	Bool:       1,
	Int8:       1,
	Int16:      2,
	Int32:      4,
	Int64:      8,
	Uint8:      1,
	Uint16:     2,
	Uint32:     4,
	Uint64:     8,
	Float32:    4,
	Float64:    8,
	Complex64:  8,
	Complex128: 16,
	String:     0,
	Object:     0,
}

// ParseDType resolves a type code as produced by DType.Code.
func ParseDType(code string) (DType, error) {
	for dt, c := range dtypeCodes {
		if c != "" && c == code {
			return DType(dt), nil
		}
	}
	return Invalid, fmt.Errorf("unknown dtype code %q", code)
}

// Code is the numpy-style type code, e.g. "<f8".
func (d DType) Code() string {
	if int(d) >= len(dtypeCodes) {
		return ""
	}
	return dtypeCodes[d]
}

func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	case String:
		return "string"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// ItemSize is the width in bytes of one element in the raw buffer layout.
// It is zero for string and object arrays, which have no buffer layout.
func (d DType) ItemSize() int {
	if int(d) >= len(dtypeSizes) {
		return 0
	}
	return dtypeSizes[d]
}

// Numeric reports whether the dtype has a fixed-width buffer layout.
func (d DType) Numeric() bool {
	return d >= Bool && d <= Complex128
}

// Valid reports whether d is one of the known dtypes.
func (d DType) Valid() bool {
	return d > Invalid && d <= Object
}
