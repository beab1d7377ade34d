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

// BossCuboidSize is the Boss storage cuboid at every resolution.
var BossCuboidSize = ndio.Point3d{512, 512, 16}

func init() {
	Register("boss", "1.0.0", newBoss)
}

var bossChannelSchema = jsonschema.MustCompileString("boss-channel.json", `{
	"type": "object",
	"required": ["name", "datatype"],
	"properties": {
		"name": {"type": "string"},
		"datatype": {"enum": ["uint8", "uint16", "uint64"]},
		"base_resolution": {"type": "integer", "minimum": 0}
	}
}`)

var bossExperimentSchema = jsonschema.MustCompileString("boss-experiment.json", `{
	"type": "object",
	"required": ["coord_frame"],
	"properties": {
		"coord_frame": {"type": "string", "minLength": 1},
		"num_hierarchy_levels": {"type": "integer", "minimum": 1},
		"num_time_samples": {"type": "integer", "minimum": 0}
	}
}`)

var bossFrameSchema = jsonschema.MustCompileString("boss-coord.json", `{
	"type": "object",
	"required": ["x_start", "x_stop", "y_start", "y_stop", "z_start", "z_stop"],
	"properties": {
		"x_start": {"type": "integer"},
		"y_start": {"type": "integer"},
		"z_start": {"type": "integer"}
	}
}`)

type bossChannel struct {
	Name     string `json:"name"`
	DataType string `json:"datatype"`
}

type bossExperiment struct {
	CoordFrame         string `json:"coord_frame"`
	NumHierarchyLevels int    `json:"num_hierarchy_levels"`
	NumTimeSamples     int    `json:"num_time_samples"`
}

type bossFrame struct {
	XStart int32 `json:"x_start"`
	XStop  int32 `json:"x_stop"`
	YStart int32 `json:"y_start"`
	YStop  int32 `json:"y_stop"`
	ZStart int32 `json:"z_start"`
	ZStop  int32 `json:"z_stop"`
}

// Boss speaks version 1 of the Boss REST API.  Cutouts are exchanged as gzipped npy.
type Boss struct {
	base    string
	version semver.Version
	tr      transport.Transport
	codec   codec.Codec
}

func newBoss(version semver.Version, opts Options) (Service, error) {
	c, err := serviceCodec(opts, codec.NPYGzip{})
	if err != nil {
		return nil, err
	}
	return &Boss{base: opts.Base, version: version, tr: opts.Transport, codec: c}, nil
}

func (b *Boss) Name() string { return "boss" }

func (b *Boss) Version() semver.Version { return b.version }

func (b *Boss) Codec() codec.Codec { return b.codec }

func (b *Boss) ParseResource(s string) (Resource, error) {
	return parseScheme(s, SchemeBoss)
}

func (b *Boss) apiURL(format string, args ...interface{}) string {
	return fmt.Sprintf("%s/v%d", b.base, b.version.Major) + fmt.Sprintf(format, args...)
}

// ChannelInfo reads the channel datatype, the experiment's pyramid depth and time
// samples, and the origin of the experiment's coordinate frame.
func (b *Boss) ChannelInfo(ctx context.Context, r Resource) (ChannelInfo, error) {
	var info ChannelInfo
	if err := checkScheme(r, SchemeBoss); err != nil {
		return info, err
	}
	var ch bossChannel
	url := b.apiURL("/collection/%s/experiment/%s/channel/%s/", r.Collection, r.Experiment, r.Channel)
	if err := getJSON(ctx, b.tr, url, bossChannelSchema, &ch); err != nil {
		return info, err
	}
	var exp bossExperiment
	url = b.apiURL("/collection/%s/experiment/%s/", r.Collection, r.Experiment)
	if err := getJSON(ctx, b.tr, url, bossExperimentSchema, &exp); err != nil {
		return info, err
	}
	var frame bossFrame
	url = b.apiURL("/coord/%s/", exp.CoordFrame)
	if err := getJSON(ctx, b.tr, url, bossFrameSchema, &frame); err != nil {
		return info, err
	}
	t, err := ndio.ParseDataType(ch.DataType)
	if err != nil {
		return info, err
	}
	info = ChannelInfo{
		DataType:       t,
		BlockSize:      BossCuboidSize,
		Origin:         ndio.Point3d{frame.XStart, frame.YStart, frame.ZStart},
		NumResolutions: exp.NumHierarchyLevels,
		TimeSeries:     exp.NumTimeSamples > 1,
	}
	return info, nil
}

// CutoutURL returns a URL like /v1/cutout/coll/exp/chan/0/0:512/0:512/0:16/.
func (b *Boss) CutoutURL(r Resource, resolution int, box ndio.Subvolume, t *ndio.Span) (string, error) {
	if err := checkScheme(r, SchemeBoss); err != nil {
		return "", err
	}
	url := b.apiURL("/cutout/%s/%s/%s/%d/%d:%d/%d:%d/%d:%d/", r.Collection, r.Experiment, r.Channel, resolution,
		box.Start[0], box.Stop[0], box.Start[1], box.Stop[1], box.Start[2], box.Stop[2])
	if t != nil {
		url += fmt.Sprintf("%d:%d/", t.Start, t.Stop)
	}
	return url, nil
}
