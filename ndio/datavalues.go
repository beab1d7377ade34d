/*
   This file handles the sample types stored in remote channels and the numpy
   descriptors used to name them on the wire.
*/

package ndio

import (
	"fmt"
	"strings"
)

// DataType is a unique ID for each type of sample, e.g., a uint8 or a float32.
type DataType uint8

const (
	T_uint8 DataType = iota
	T_int8
	T_uint16
	T_int16
	T_uint32
	T_int32
	T_uint64
	T_int64
	T_float32
	T_float64
)

var typeBytes = map[DataType]int32{
	T_uint8:   1,
	T_int8:    1,
	T_uint16:  2,
	T_int16:   2,
	T_uint32:  4,
	T_int32:   4,
	T_uint64:  8,
	T_int64:   8,
	T_float32: 4,
	T_float64: 8,
}

var typeNames = map[DataType]string{
	T_uint8:   "uint8",
	T_int8:    "int8",
	T_uint16:  "uint16",
	T_int16:   "int16",
	T_uint32:  "uint32",
	T_int32:   "int32",
	T_uint64:  "uint64",
	T_int64:   "int64",
	T_float32: "float32",
	T_float64: "float64",
}

// numpy array-protocol type strings, all little-endian.
var typeDescr = map[DataType]string{
	T_uint8:   "|u1",
	T_int8:    "|i1",
	T_uint16:  "<u2",
	T_int16:   "<i2",
	T_uint32:  "<u4",
	T_int32:   "<i4",
	T_uint64:  "<u8",
	T_int64:   "<i8",
	T_float32: "<f4",
	T_float64: "<f8",
}

// DataTypeBytes returns the # of bytes for a given type.
// For example, T_uint16 is 2 bytes.  No error checking is performed
// to make sure the type is valid.
func DataTypeBytes(t DataType) int32 {
	return typeBytes[t]
}

// Bytes returns the number of bytes per sample.
func (t DataType) Bytes() int {
	return int(typeBytes[t])
}

// IsFloat returns true for floating point sample types.
func (t DataType) IsFloat() bool {
	return t == T_float32 || t == T_float64
}

// IsSigned returns true for signed integer sample types.
func (t DataType) IsSigned() bool {
	switch t {
	case T_int8, T_int16, T_int32, T_int64:
		return true
	}
	return false
}

func (t DataType) String() string {
	if name, found := typeNames[t]; found {
		return name
	}
	return fmt.Sprintf("unknown datatype %d", uint8(t))
}

func (t DataType) MarshalText() ([]byte, error) {
	if _, found := typeNames[t]; !found {
		return nil, fmt.Errorf("cannot marshal unknown datatype %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *DataType) UnmarshalText(text []byte) (err error) {
	*t, err = ParseDataType(string(text))
	return
}

// Descr returns the numpy descriptor for the type, e.g., "<u2" for uint16.
func (t DataType) Descr() string {
	return typeDescr[t]
}

// ParseDataType returns the DataType for names like "uint8" or "UINT64".
func ParseDataType(s string) (DataType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return T_uint8, fmt.Errorf("unknown datatype %q", s)
}

// DataTypeFromDescr returns the DataType for a numpy descriptor like "<u8".
// Big-endian descriptors are rejected.
func DataTypeFromDescr(descr string) (DataType, error) {
	if len(descr) == 3 && descr[0] == '=' {
		descr = "<" + descr[1:]
	}
	if len(descr) == 3 && descr[0] == '<' && descr[2] == '1' {
		descr = "|" + descr[1:]
	}
	for t, d := range typeDescr {
		if d == descr {
			return t, nil
		}
	}
	return T_uint8, fmt.Errorf("unsupported numpy descriptor %q", descr)
}
