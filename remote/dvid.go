package remote

import (
	"context"
	"fmt"

	"github.com/blang/semver"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/transport"
)

func init() {
	Register("dvid", "1.0.0", newDVID)
}

var dvidInfoSchema = jsonschema.MustCompileString("dvid-info.json", `{
	"type": "object",
	"required": ["Base", "Extended"],
	"properties": {
		"Base": {
			"type": "object",
			"required": ["TypeName"],
			"properties": {"TypeName": {"type": "string"}}
		},
		"Extended": {
			"type": "object",
			"required": ["BlockSize", "Values"],
			"properties": {
				"BlockSize": {"type": "array", "items": {"type": "integer", "minimum": 1}, "minItems": 3, "maxItems": 3},
				"Values": {
					"type": "array",
					"minItems": 1,
					"items": {
						"type": "object",
						"required": ["DataType"],
						"properties": {"DataType": {"type": "string"}}
					}
				}
			}
		}
	}
}`)

type dvidInfo struct {
	Base struct {
		TypeName string
		Name     string
	}
	Extended struct {
		BlockSize []int32
		Values    []struct {
			DataType string
			Label    string
		}
	}
}

// DVID reads and writes raw 0_1_2 subvolumes of a voxel data instance.  DVID has a
// single resolution per data instance and no time axis.
type DVID struct {
	base    string
	version semver.Version
	tr      transport.Transport
	codec   codec.Codec
}

func newDVID(version semver.Version, opts Options) (Service, error) {
	c, err := serviceCodec(opts, codec.Raw{Compression: codec.LZ4})
	if err != nil {
		return nil, err
	}
	if _, ok := c.(codec.Raw); !ok {
		return nil, fmt.Errorf("dvid raw endpoints cannot use %q bodies", c.Name())
	}
	return &DVID{base: opts.Base, version: version, tr: opts.Transport, codec: c}, nil
}

func (d *DVID) Name() string { return "dvid" }

func (d *DVID) Version() semver.Version { return d.version }

func (d *DVID) Codec() codec.Codec { return d.codec }

func (d *DVID) ParseResource(s string) (Resource, error) {
	return parseScheme(s, SchemeDVID)
}

func (d *DVID) ChannelInfo(ctx context.Context, r Resource) (ChannelInfo, error) {
	var info ChannelInfo
	if err := checkScheme(r, SchemeDVID); err != nil {
		return info, err
	}
	var di dvidInfo
	url := fmt.Sprintf("%s/api/node/%s/%s/info", d.base, r.UUID, r.Name)
	if err := getJSON(ctx, d.tr, url, dvidInfoSchema, &di); err != nil {
		return info, err
	}
	t, err := ndio.ParseDataType(di.Extended.Values[0].DataType)
	if err != nil {
		return info, err
	}
	blockSize, err := point3dFromInts(di.Extended.BlockSize)
	if err != nil {
		return info, fmt.Errorf("bad block size for %s: %v: %w", r, err, ndio.ErrDecodeFailed)
	}
	info = ChannelInfo{
		DataType:       t,
		BlockSize:      blockSize,
		NumResolutions: 1,
	}
	return info, nil
}

// CutoutURL returns a URL like /api/node/uuid/grayscale/raw/0_1_2/64_64_64/0_0_0?compression=lz4.
func (d *DVID) CutoutURL(r Resource, resolution int, box ndio.Subvolume, t *ndio.Span) (string, error) {
	if err := checkScheme(r, SchemeDVID); err != nil {
		return "", err
	}
	if t != nil {
		return "", fmt.Errorf("dvid data %s has no time axis: %w", r, ndio.ErrInvalidRange)
	}
	if resolution != 0 {
		return "", fmt.Errorf("dvid data %s only serves resolution 0: %w", r, ndio.ErrInvalidRange)
	}
	size := box.Size()
	url := fmt.Sprintf("%s/api/node/%s/%s/raw/0_1_2/%d_%d_%d/%d_%d_%d", d.base, r.UUID, r.Name,
		size[0], size[1], size[2], box.Start[0], box.Start[1], box.Start[2])
	if comp := d.codec.(codec.Raw).Compression; comp != codec.Uncompressed {
		url += "?compression=" + string(comp)
	}
	return url, nil
}
