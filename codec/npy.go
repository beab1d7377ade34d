package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/janelia-flyem/ndio/ndio"
)

// npy headers are padded to a multiple of this many bytes.
const npyHeaderUnits = 64

var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

var (
	descrRE   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranRE = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRE   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

func npyHeader(v *ndio.Volume) []byte {
	dims := make([]string, len(v.Shape))
	for i, d := range v.Shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(dims) == 1 {
		shape += ","
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", v.Type.Descr(), shape)

	// 10 byte preamble, then the dict padded with spaces and a closing newline.
	const preamble = 10
	total := preamble + len(dict) + 1
	if rem := total % npyHeaderUnits; rem != 0 {
		total += npyHeaderUnits - rem
	}
	header := make([]byte, 0, total)
	header = append(header, npyMagic...)
	header = append(header, 1, 0)
	header = append(header, 0, 0)
	binary.LittleEndian.PutUint16(header[8:10], uint16(total-preamble))
	header = append(header, dict...)
	for len(header) < total-1 {
		header = append(header, ' ')
	}
	return append(header, '\n')
}

// WriteNPY writes the volume to w as a version 1.0 .npy array.
func WriteNPY(w io.Writer, v *ndio.Volume) error {
	if v.Type.Descr() == "" {
		return fmt.Errorf("cannot write %s volume as npy", v.Type)
	}
	if _, err := w.Write(npyHeader(v)); err != nil {
		return err
	}
	_, err := w.Write(v.Data)
	return err
}

// MarshalNPY returns the .npy serialization of a volume.
func MarshalNPY(v *ndio.Volume) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(v.Data) + npyHeaderUnits*2)
	if err := WriteNPY(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadNPY reads a C-order little-endian .npy array of version 1.x, 2.x or 3.x.
func ReadNPY(r io.Reader) (*ndio.Volume, error) {
	pre := make([]byte, 8)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, fmt.Errorf("reading npy preamble: %v", err)
	}
	if !bytes.Equal(pre[:6], npyMagic) {
		return nil, fmt.Errorf("bad npy magic % x", pre[:6])
	}
	var headerLen int
	switch pre[6] {
	case 1:
		b := make([]byte, 2)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		headerLen = int(binary.LittleEndian.Uint16(b))
	case 2, 3:
		b := make([]byte, 4)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		headerLen = int(binary.LittleEndian.Uint32(b))
	default:
		return nil, fmt.Errorf("unsupported npy version %d.%d", pre[6], pre[7])
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading npy header: %v", err)
	}
	t, shape, size, err := parseNPYHeader(string(header))
	if err != nil {
		return nil, err
	}
	// The declared shape is not trusted for allocation: a short body fails here
	// without ever holding more than it sent.
	data, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("reading npy data for shape %v: %v", shape, err)
	}
	if len(data) != size {
		return nil, fmt.Errorf("npy data for shape %v has %d bytes, expected %d", shape, len(data), size)
	}
	return ndio.NewVolumeFromData(t, shape, data)
}

// UnmarshalNPY parses a complete .npy serialization, rejecting trailing bytes.
func UnmarshalNPY(data []byte) (*ndio.Volume, error) {
	r := bytes.NewReader(data)
	v, err := ReadNPY(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d unexpected bytes after npy data", r.Len())
	}
	return v, nil
}

// npyDataSize returns the byte size of an array, failing if it cannot be addressed.
func npyDataSize(t ndio.DataType, shape []int) (int, error) {
	size := t.Bytes()
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension in npy shape %v", shape)
		}
		if d != 0 && size > math.MaxInt/d {
			return 0, fmt.Errorf("npy shape %v is too large", shape)
		}
		size *= d
	}
	return size, nil
}

func parseNPYHeader(header string) (ndio.DataType, []int, int, error) {
	m := descrRE.FindStringSubmatch(header)
	if m == nil {
		return 0, nil, 0, fmt.Errorf("npy header has no descr: %q", header)
	}
	t, err := ndio.DataTypeFromDescr(m[1])
	if err != nil {
		return 0, nil, 0, err
	}
	if m = fortranRE.FindStringSubmatch(header); m != nil && m[1] == "True" {
		return 0, nil, 0, fmt.Errorf("fortran-ordered npy arrays are not supported")
	}
	m = shapeRE.FindStringSubmatch(header)
	if m == nil {
		return 0, nil, 0, fmt.Errorf("npy header has no shape: %q", header)
	}
	var shape []int
	for _, field := range strings.Split(m[1], ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		d, err := strconv.Atoi(strings.TrimSuffix(field, "L"))
		if err != nil || d < 0 {
			return 0, nil, 0, fmt.Errorf("bad npy shape %q", m[1])
		}
		shape = append(shape, d)
	}
	size, err := npyDataSize(t, shape)
	if err != nil {
		return 0, nil, 0, err
	}
	return t, shape, size, nil
}
