package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	. "github.com/janelia-flyem/go/gocheck"
	"github.com/klauspost/compress/zlib"

	"github.com/janelia-flyem/ndio/ndio"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type CodecSuite struct{}

var _ = Suite(&CodecSuite{})

func randomVolume(t ndio.DataType, shape ...int) *ndio.Volume {
	v := ndio.NewVolume(t, shape...)
	rand.New(rand.NewSource(int64(len(v.Data)))).Read(v.Data)
	return v
}

// npyWithHeader builds a version 1.0 .npy stream with the given header dict
// followed by payload, padded the way numpy.save pads it.
func npyWithHeader(dict string, payload ...byte) []byte {
	header := append([]byte{0x93, 'N', 'U', 'M', 'P', 'Y', 1, 0, 0, 0}, dict...)
	for (len(header)+1)%npyHeaderUnits != 0 {
		header = append(header, ' ')
	}
	header = append(header, '\n')
	header[8] = byte(len(header) - 10)
	return append(header, payload...)
}

func (s *CodecSuite) TestRoundTrip(c *C) {
	volumes := []*ndio.Volume{
		randomVolume(ndio.T_uint8, 9, 5, 10),
		randomVolume(ndio.T_uint16, 16, 32, 32),
		randomVolume(ndio.T_uint64, 3, 4, 5, 6),
		ndio.NewVolume(ndio.T_uint32, 4, 64, 64),
		ndio.NewVolume(ndio.T_float32, 0, 5, 5),
	}
	for _, name := range Names() {
		codec, err := Get(name)
		c.Assert(err, IsNil)
		for _, v := range volumes {
			data, err := codec.Encode(v)
			c.Assert(err, IsNil, Commentf("%s: encoding %s", name, v))
			got, err := codec.Decode(data, Spec{Type: v.Type, Shape: v.Shape})
			c.Assert(err, IsNil, Commentf("%s: decoding %s", name, v))
			c.Check(got.Equals(v), Equals, true, Commentf("%s: round trip of %s gave %s", name, v, got))
		}
	}
}

func (s *CodecSuite) TestRegistry(c *C) {
	c.Assert(Names(), DeepEquals, []string{"npygz", "npz", "raw", "raw+gzip", "raw+lz4", "raw+snappy"})
	_, err := Get("blosc")
	c.Assert(err, NotNil)

	codec, err := Get("npygz")
	c.Assert(err, IsNil)
	c.Assert(codec.ContentType(), Equals, "application/npygz")
}

func (s *CodecSuite) TestNPYHeader(c *C) {
	v := randomVolume(ndio.T_uint16, 9, 5, 10)
	data, err := MarshalNPY(v)
	c.Assert(err, IsNil)
	headerLen := len(data) - len(v.Data)
	c.Assert(headerLen%npyHeaderUnits, Equals, 0)
	c.Assert(data[headerLen-1], Equals, byte('\n'))
	expected := "{'descr': '<u2', 'fortran_order': False, 'shape': (9, 5, 10), }"
	c.Assert(bytes.Contains(data[:headerLen], []byte(expected)), Equals, true,
		Commentf("npy header %q", data[:headerLen]))
}

func (s *CodecSuite) TestReadNumpyWritten(c *C) {
	// Header as written by numpy.save for np.arange(6, dtype=np.uint8).reshape(1, 2, 3).
	data := npyWithHeader("{'descr': '|u1', 'fortran_order': False, 'shape': (1, 2, 3), }", 0, 1, 2, 3, 4, 5)

	v, err := UnmarshalNPY(data)
	c.Assert(err, IsNil)
	c.Assert(v.Type, Equals, ndio.T_uint8)
	c.Assert(v.Shape, DeepEquals, []int{1, 2, 3})
	c.Assert(v.Value(v.Index(0, 1, 2)), Equals, uint64(5))

	_, err = UnmarshalNPY(append(data, 9))
	c.Assert(err, NotNil)

	fortran := bytes.Replace(data, []byte("False"), []byte("True "), 1)
	_, err = UnmarshalNPY(fortran)
	c.Assert(err, NotNil)
}

func (s *CodecSuite) TestDecodeFailures(c *C) {
	v := randomVolume(ndio.T_uint8, 4, 4, 4)
	for _, name := range Names() {
		codec, _ := Get(name)
		data, err := codec.Encode(v)
		c.Assert(err, IsNil)

		// Wrong shape must not silently decode.
		_, err = codec.Decode(data, Spec{Type: ndio.T_uint8, Shape: []int{4, 4, 5}})
		c.Check(errors.Is(err, ndio.ErrDecodeFailed), Equals, true, Commentf("%s wrong shape: %v", name, err))
		if len(data) > 8 {
			_, err = codec.Decode(data[:len(data)/2], Spec{Type: ndio.T_uint8, Shape: v.Shape})
			c.Check(errors.Is(err, ndio.ErrDecodeFailed), Equals, true, Commentf("%s truncated: %v", name, err))
		}
	}

	_, err := Raw{}.Decode(v.Data, Spec{Type: ndio.T_uint8})
	c.Assert(errors.Is(err, ndio.ErrDecodeFailed), Equals, true)

	npz, _ := NPZ{}.Encode(v)
	_, err = NPZ{}.Decode(npz, Spec{Type: ndio.T_uint16})
	c.Assert(errors.Is(err, ndio.ErrDecodeFailed), Equals, true)

	_, err = NPYGzip{}.Decode([]byte("not gzip"), Spec{Type: ndio.T_uint8})
	c.Assert(errors.Is(err, ndio.ErrDecodeFailed), Equals, true)
}

func (s *CodecSuite) TestOversizedShape(c *C) {
	headers := []string{
		// Element count times sample size overflows int.
		"{'descr': '<u2', 'fortran_order': False, 'shape': (4611686018427387904,), }",
		"{'descr': '<u8', 'fortran_order': False, 'shape': (4294967296, 4294967296, 2), }",
		// Addressable but far larger than the body.
		"{'descr': '<u2', 'fortran_order': False, 'shape': (1073741824,), }",
		"{'descr': '<u2', 'fortran_order': False, 'shape': (-4,), }",
	}
	for _, dict := range headers {
		data := npyWithHeader(dict, 1, 2, 3, 4)
		_, err := UnmarshalNPY(data)
		c.Check(err, NotNil, Commentf("header %s", dict))

		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		_, err = zw.Write(data)
		c.Assert(err, IsNil)
		c.Assert(zw.Close(), IsNil)
		_, err = NPZ{}.Decode(buf.Bytes(), Spec{Type: ndio.T_uint16})
		c.Check(errors.Is(err, ndio.ErrDecodeFailed), Equals, true, Commentf("header %s: %v", dict, err))
	}
}

func (s *CodecSuite) TestNPYDataSize(c *C) {
	size, err := npyDataSize(ndio.T_uint16, []int{9, 5, 10})
	c.Assert(err, IsNil)
	c.Assert(size, Equals, 900)

	size, err = npyDataSize(ndio.T_uint64, []int{0, 1 << 40, 1 << 40})
	c.Assert(err, IsNil)
	c.Assert(size, Equals, 0)

	_, err = npyDataSize(ndio.T_uint16, []int{1 << 62})
	c.Assert(err, NotNil)
}
