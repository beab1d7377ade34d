package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/janelia-flyem/ndio/ndio"
)

// NPZ is the OCP cutout format: a .npy array compressed with zlib.
type NPZ struct{}

func (NPZ) Name() string { return "npz" }

func (NPZ) ContentType() string { return "application/octet-stream" }

func (NPZ) Encode(v *ndio.Volume) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if err := WriteNPY(zw, v); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c NPZ) Decode(data []byte, want Spec) (*ndio.Volume, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(c.Name(), err)
	}
	defer zr.Close()
	return decodeNPYStream(c.Name(), zr, want)
}

// NPYGzip is a .npy array compressed with gzip, as served by the Boss for
// the application/npygz media type.
type NPYGzip struct{}

func (NPYGzip) Name() string { return "npygz" }

func (NPYGzip) ContentType() string { return "application/npygz" }

func (NPYGzip) Encode(v *ndio.Volume) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if err := WriteNPY(gw, v); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c NPYGzip) Decode(data []byte, want Spec) (*ndio.Volume, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(c.Name(), err)
	}
	defer gr.Close()
	return decodeNPYStream(c.Name(), gr, want)
}

func decodeNPYStream(name string, r io.Reader, want Spec) (*ndio.Volume, error) {
	npy, err := io.ReadAll(r)
	if err != nil {
		return nil, decodeError(name, err)
	}
	v, err := UnmarshalNPY(npy)
	if err != nil {
		return nil, decodeError(name, err)
	}
	if err := checkDecoded(name, v, want); err != nil {
		return nil, err
	}
	return v, nil
}
