package remote

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/blang/semver"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/transport"
)

func init() {
	Register("ocp", "0.6.0", newOCP)
	Register("ocp", "0.7.0", newOCP)
}

var ocpInfoSchema = jsonschema.MustCompileString("ocp-info.json", `{
	"type": "object",
	"required": ["dataset", "channels"],
	"properties": {
		"dataset": {
			"type": "object",
			"required": ["cube_dimension", "offset"],
			"properties": {
				"cube_dimension": {
					"type": "object",
					"additionalProperties": {"$ref": "#/$defs/triple"}
				},
				"offset": {
					"type": "object",
					"additionalProperties": {"$ref": "#/$defs/triple"}
				},
				"resolutions": {"type": "array", "items": {"type": "integer"}},
				"timerange": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 2}
			}
		},
		"channels": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["datatype"],
				"properties": {"datatype": {"type": "string"}}
			}
		}
	},
	"$defs": {
		"triple": {"type": "array", "items": {"type": "integer"}, "minItems": 3, "maxItems": 3}
	}
}`)

type ocpInfo struct {
	Dataset struct {
		CubeDimension map[string][]int32 `json:"cube_dimension"`
		Offset        map[string][]int32 `json:"offset"`
		Resolutions   []int              `json:"resolutions"`
		TimeRange     []int32            `json:"timerange"`
	} `json:"dataset"`
	Channels map[string]struct {
		DataType string `json:"datatype"`
	} `json:"channels"`
}

// OCP speaks the OCP/neurodata cutout API.  Version 0.7 moved cutouts from the
// /ocp/ca prefix to /sd; project info stays at /ocp/ca/<token>/info/ in both.
type OCP struct {
	base    string
	version semver.Version
	tr      transport.Transport
	codec   codec.Codec
}

func newOCP(version semver.Version, opts Options) (Service, error) {
	c, err := serviceCodec(opts, codec.NPZ{})
	if err != nil {
		return nil, err
	}
	return &OCP{base: opts.Base, version: version, tr: opts.Transport, codec: c}, nil
}

func (o *OCP) Name() string { return "ocp" }

func (o *OCP) Version() semver.Version { return o.version }

func (o *OCP) Codec() codec.Codec { return o.codec }

func (o *OCP) ParseResource(s string) (Resource, error) {
	return parseScheme(s, SchemeOCP)
}

var ocpSDVersion = semver.MustParse("0.7.0")

func (o *OCP) cutoutPrefix() string {
	if o.version.GTE(ocpSDVersion) {
		return o.base + "/sd"
	}
	return o.base + "/ocp/ca"
}

// ChannelInfo reads the project info, which lists the cube dimension and offset of
// every resolution and the datatype of every channel.
func (o *OCP) ChannelInfo(ctx context.Context, r Resource) (ChannelInfo, error) {
	var info ChannelInfo
	if err := checkScheme(r, SchemeOCP); err != nil {
		return info, err
	}
	var proj ocpInfo
	url := fmt.Sprintf("%s/ocp/ca/%s/info/", o.base, r.Token)
	if err := getJSON(ctx, o.tr, url, ocpInfoSchema, &proj); err != nil {
		return info, err
	}
	ch, found := proj.Channels[r.Channel]
	if !found {
		return info, fmt.Errorf("project %q has no channel %q: %w", r.Token, r.Channel, ndio.ErrInvalidRange)
	}
	t, err := ndio.ParseDataType(ch.DataType)
	if err != nil {
		return info, err
	}
	info.DataType = t
	info.Levels = make(map[int]Level, len(proj.Dataset.CubeDimension))
	var resolutions []int
	for key, dims := range proj.Dataset.CubeDimension {
		res, err := strconv.Atoi(key)
		if err != nil {
			return info, fmt.Errorf("bad resolution %q in %s: %v: %w", key, url, err, ndio.ErrDecodeFailed)
		}
		var level Level
		if level.BlockSize, err = point3dFromInts(dims); err != nil {
			return info, fmt.Errorf("bad cube dimension at resolution %d: %v: %w", res, err, ndio.ErrDecodeFailed)
		}
		if offset, found := proj.Dataset.Offset[key]; found {
			if level.Origin, err = point3dFromInts(offset); err != nil {
				return info, fmt.Errorf("bad offset at resolution %d: %v: %w", res, err, ndio.ErrDecodeFailed)
			}
		}
		info.Levels[res] = level
		resolutions = append(resolutions, res)
	}
	sort.Ints(resolutions)
	if len(resolutions) == 0 {
		return info, fmt.Errorf("project %q lists no resolutions: %w", r.Token, ndio.ErrDecodeFailed)
	}
	base := info.Levels[resolutions[0]]
	info.BlockSize, info.Origin = base.BlockSize, base.Origin
	if n := len(proj.Dataset.Resolutions); n > 0 {
		info.NumResolutions = n
	} else {
		info.NumResolutions = resolutions[len(resolutions)-1] + 1
	}
	if tr := proj.Dataset.TimeRange; len(tr) == 2 && tr[1] > tr[0] {
		info.TimeSeries = true
	}
	return info, nil
}

// CutoutURL returns a URL like /sd/token/channel/npz/0/0,128/0,128/1,17/.
func (o *OCP) CutoutURL(r Resource, resolution int, box ndio.Subvolume, t *ndio.Span) (string, error) {
	if err := checkScheme(r, SchemeOCP); err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/%s/%s/%s/%d/%d,%d/%d,%d/%d,%d/", o.cutoutPrefix(), r.Token, r.Channel, o.codec.Name(),
		resolution, box.Start[0], box.Stop[0], box.Start[1], box.Stop[1], box.Start[2], box.Stop[2])
	if t != nil {
		url += fmt.Sprintf("%d,%d/", t.Start, t.Stop)
	}
	return url, nil
}
