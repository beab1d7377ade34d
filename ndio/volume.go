package ndio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Volume is a dense C-order array of samples.  Spatial volumes have shape (z,y,x)
// and time series have shape (t,z,y,x), so x always iterates most rapidly.
// Samples are stored little-endian in Data.
type Volume struct {
	Type  DataType
	Shape []int
	Data  []byte
}

// NewVolume returns a zero-filled volume of the given sample type and shape.
func NewVolume(t DataType, shape ...int) *Volume {
	s := append([]int(nil), shape...)
	return &Volume{
		Type:  t,
		Shape: s,
		Data:  make([]byte, numElements(s)*t.Bytes()),
	}
}

// NewVolumeFromData wraps an existing byte slice, checking its length against the shape.
func NewVolumeFromData(t DataType, shape []int, data []byte) (*Volume, error) {
	expected := numElements(shape) * t.Bytes()
	if len(data) != expected {
		return nil, fmt.Errorf("expected %d bytes for %s volume of shape %v, got %d", expected, t, shape, len(data))
	}
	return &Volume{
		Type:  t,
		Shape: append([]int(nil), shape...),
		Data:  data,
	}, nil
}

func numElements(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// strides returns C-order element strides for a shape.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= shape[i]
	}
	return s
}

func (v *Volume) NumDims() int {
	return len(v.Shape)
}

func (v *Volume) NumVoxels() int {
	return numElements(v.Shape)
}

func (v *Volume) NumBytes() int {
	return len(v.Data)
}

// Index returns the flat element index of the given coordinate, which is given
// in the same axis order as Shape.
func (v *Volume) Index(coord ...int) int {
	st := strides(v.Shape)
	i := 0
	for d, c := range coord {
		i += c * st[d]
	}
	return i
}

// Value returns element i as an unsigned integer.  Signed samples are sign-extended
// and floating point samples are truncated.
func (v *Volume) Value(i int) uint64 {
	switch {
	case v.Type.IsFloat():
		return uint64(int64(v.floatAt(i)))
	case v.Type.IsSigned():
		return uint64(v.signedAt(i))
	default:
		return v.bitsAt(i)
	}
}

// SetValue stores x into element i, keeping only the low bytes for narrow types.
func (v *Volume) SetValue(i int, x uint64) {
	if v.Type.IsFloat() {
		v.putFloat(i, float64(x))
		return
	}
	v.putBits(i, x)
}

// Float returns element i as a float64.
func (v *Volume) Float(i int) float64 {
	switch {
	case v.Type.IsFloat():
		return v.floatAt(i)
	case v.Type.IsSigned():
		return float64(v.signedAt(i))
	default:
		return float64(v.bitsAt(i))
	}
}

func (v *Volume) bitsAt(i int) uint64 {
	bpv := v.Type.Bytes()
	b := v.Data[i*bpv : i*bpv+bpv]
	switch bpv {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func (v *Volume) signedAt(i int) int64 {
	bits := v.bitsAt(i)
	switch v.Type.Bytes() {
	case 1:
		return int64(int8(bits))
	case 2:
		return int64(int16(bits))
	case 4:
		return int64(int32(bits))
	default:
		return int64(bits)
	}
}

func (v *Volume) floatAt(i int) float64 {
	if v.Type == T_float32 {
		return float64(math.Float32frombits(uint32(v.bitsAt(i))))
	}
	return math.Float64frombits(v.bitsAt(i))
}

func (v *Volume) putBits(i int, bits uint64) {
	bpv := v.Type.Bytes()
	b := v.Data[i*bpv : i*bpv+bpv]
	switch bpv {
	case 1:
		b[0] = uint8(bits)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(bits))
	default:
		binary.LittleEndian.PutUint64(b, bits)
	}
}

func (v *Volume) putFloat(i int, f float64) {
	if v.Type == T_float32 {
		v.putBits(i, uint64(math.Float32bits(float32(f))))
		return
	}
	v.putBits(i, math.Float64bits(f))
}

// Convert returns the volume cast to another sample type with numpy astype
// semantics: integers wrap, floats truncate toward zero.  If the type already
// matches, the receiver is returned.
func (v *Volume) Convert(t DataType) (*Volume, error) {
	if t == v.Type {
		return v, nil
	}
	if t.Bytes() == 0 {
		return nil, fmt.Errorf("cannot convert volume to %s", t)
	}
	out := NewVolume(t, v.Shape...)
	n := v.NumVoxels()
	for i := 0; i < n; i++ {
		if t.IsFloat() {
			out.putFloat(i, v.Float(i))
		} else {
			out.putBits(i, v.Value(i))
		}
	}
	return out, nil
}

// SubVolume copies out the region with the given offset and size, both given in the
// volume's axis order.
func (v *Volume) SubVolume(offset, size []int) (*Volume, error) {
	if err := v.checkRegion(offset, size); err != nil {
		return nil, err
	}
	out := NewVolume(v.Type, size...)
	copyRegion(out.Data, out.Shape, make([]int, len(size)), v.Data, v.Shape, offset, size, v.Type.Bytes())
	return out, nil
}

// Paste copies all of src into the receiver at the given offset.
func (v *Volume) Paste(src *Volume, offset []int) error {
	if src.Type != v.Type {
		return fmt.Errorf("cannot paste %s volume into %s volume", src.Type, v.Type)
	}
	if err := v.checkRegion(offset, src.Shape); err != nil {
		return err
	}
	copyRegion(v.Data, v.Shape, offset, src.Data, src.Shape, make([]int, len(src.Shape)), src.Shape, v.Type.Bytes())
	return nil
}

func (v *Volume) checkRegion(offset, size []int) error {
	if len(offset) != len(v.Shape) || len(size) != len(v.Shape) {
		return fmt.Errorf("region offset %v / size %v does not match %d-d volume", offset, size, len(v.Shape))
	}
	for d := range v.Shape {
		if offset[d] < 0 || size[d] < 0 || offset[d]+size[d] > v.Shape[d] {
			return fmt.Errorf("region offset %v size %v exceeds volume shape %v", offset, size, v.Shape)
		}
	}
	return nil
}

// copyRegion copies a box of the given size from src (starting at srcOff) into dst
// (starting at dstOff) one contiguous innermost row at a time.
func copyRegion(dst []byte, dstShape, dstOff []int, src []byte, srcShape, srcOff []int, size []int, bpv int) {
	n := len(size)
	if n == 0 {
		return
	}
	for _, s := range size {
		if s == 0 {
			return
		}
	}
	dstStrides := strides(dstShape)
	srcStrides := strides(srcShape)
	rowBytes := size[n-1] * bpv
	coord := make([]int, n-1)
	for {
		d := dstOff[n-1]
		s := srcOff[n-1]
		for i := 0; i < n-1; i++ {
			d += (dstOff[i] + coord[i]) * dstStrides[i]
			s += (srcOff[i] + coord[i]) * srcStrides[i]
		}
		copy(dst[d*bpv:d*bpv+rowBytes], src[s*bpv:s*bpv+rowBytes])

		i := n - 2
		for ; i >= 0; i-- {
			coord[i]++
			if coord[i] < size[i] {
				break
			}
			coord[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// Equals returns true if both volumes have the same type, shape and samples.
func (v *Volume) Equals(v2 *Volume) bool {
	if v2 == nil || v.Type != v2.Type || len(v.Shape) != len(v2.Shape) {
		return false
	}
	for i := range v.Shape {
		if v.Shape[i] != v2.Shape[i] {
			return false
		}
	}
	return bytes.Equal(v.Data, v2.Data)
}

func (v *Volume) String() string {
	return fmt.Sprintf("%s volume %v", v.Type, v.Shape)
}
