package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"

	"github.com/janelia-flyem/ndio/ndio"
)

// Compression names how a raw body is compressed.  The values match the
// "compression" query string understood by DVID.
type Compression string

const (
	Uncompressed Compression = ""
	LZ4          Compression = "lz4"
	Gzip         Compression = "gzip"
	Snappy       Compression = "snappy"
)

// Raw is a bare little-endian sample stream in C order, optionally compressed.
// It carries no shape, so decoding always needs the expected shape.
type Raw struct {
	Compression Compression
}

func (c Raw) Name() string {
	if c.Compression == Uncompressed {
		return "raw"
	}
	return "raw+" + string(c.Compression)
}

func (Raw) ContentType() string { return "application/octet-stream" }

func (c Raw) Encode(v *ndio.Volume) ([]byte, error) {
	switch c.Compression {
	case Uncompressed:
		return v.Data, nil
	case LZ4:
		if len(v.Data) == 0 {
			return []byte{}, nil
		}
		dst := make([]byte, lz4.CompressBlockBound(len(v.Data)))
		n, err := lz4.CompressBlock(v.Data, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compressing %s: %v", v, err)
		}
		return dst[:n], nil
	case Gzip:
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(v.Data); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Snappy:
		return snappy.Encode(nil, v.Data), nil
	default:
		return nil, fmt.Errorf("unknown raw compression %q", c.Compression)
	}
}

func (c Raw) Decode(data []byte, want Spec) (*ndio.Volume, error) {
	if want.Shape == nil {
		return nil, decodeError(c.Name(), fmt.Errorf("raw bodies need an expected shape"))
	}
	expected := want.NumBytes()
	var raw []byte
	switch c.Compression {
	case Uncompressed:
		raw = data
	case LZ4:
		raw = make([]byte, expected)
		if len(data) == 0 {
			raw = raw[:0]
			break
		}
		n, err := lz4.UncompressBlock(data, raw)
		if err != nil {
			return nil, decodeError(c.Name(), err)
		}
		raw = raw[:n]
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, decodeError(c.Name(), err)
		}
		defer gr.Close()
		if raw, err = io.ReadAll(gr); err != nil {
			return nil, decodeError(c.Name(), err)
		}
	case Snappy:
		var err error
		if raw, err = snappy.Decode(nil, data); err != nil {
			return nil, decodeError(c.Name(), err)
		}
	default:
		return nil, fmt.Errorf("unknown raw compression %q", c.Compression)
	}
	v, err := ndio.NewVolumeFromData(want.Type, want.Shape, raw)
	if err != nil {
		return nil, decodeError(c.Name(), err)
	}
	return v, nil
}
