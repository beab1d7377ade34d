/*
	Package remote describes the remote volume services a cutout client talks to.

	Each service API version is a Service registered under a name and semantic version.
	New picks the implementation for a requested version, so callers configure a service
	by the API version the server speaks and get the newest compatible implementation.
*/
package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blang/semver"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/transport"
)

// Level is the storage grid of one resolution level.
type Level struct {
	BlockSize ndio.Point3d
	Origin    ndio.Point3d
}

// ChannelInfo is the metadata needed to plan requests against a channel.
type ChannelInfo struct {
	DataType ndio.DataType

	// BlockSize and Origin describe the grid at resolution 0 and at any
	// resolution without an entry in Levels.
	BlockSize ndio.Point3d
	Origin    ndio.Point3d
	Levels    map[int]Level `json:",omitempty"`

	// NumResolutions is the number of pyramid levels, or 0 if unknown.
	NumResolutions int

	// TimeSeries is true if the channel accepts a time range.
	TimeSeries bool
}

// Grid returns the origin and block size of the storage grid at a resolution.
func (info ChannelInfo) Grid(resolution int) (origin, blockSize ndio.Point3d) {
	if level, found := info.Levels[resolution]; found {
		return level.Origin, level.BlockSize
	}
	return info.Origin, info.BlockSize
}

// CheckResolution returns ndio.ErrInvalidRange for a resolution the channel cannot serve.
func (info ChannelInfo) CheckResolution(resolution int) error {
	if resolution < 0 || (info.NumResolutions > 0 && resolution >= info.NumResolutions) {
		return fmt.Errorf("resolution %d outside [0,%d): %w", resolution, info.NumResolutions, ndio.ErrInvalidRange)
	}
	return nil
}

// Service is one version of a remote volume API.
type Service interface {
	Name() string
	Version() semver.Version

	// ChannelInfo fetches the metadata for a channel.
	ChannelInfo(ctx context.Context, r Resource) (ChannelInfo, error)

	// CutoutURL returns the URL for reading or writing the given box.  The same URL
	// serves GET and POST.  A nil time range addresses a spatial-only cutout.
	CutoutURL(r Resource, resolution int, box ndio.Subvolume, t *ndio.Span) (string, error)

	// Codec is the wire format of cutout bodies.
	Codec() codec.Codec

	// ParseResource parses a resource string for this service.
	ParseResource(s string) (Resource, error)
}

// Options configure a new Service.
type Options struct {
	// Base is the protocol and host, e.g., "https://api.bossdb.io".
	Base string

	Transport transport.Transport

	// Codec overrides the service's default cutout codec if non-empty.
	Codec string
}

// Factory creates a Service for one registered version.
type Factory func(version semver.Version, opts Options) (Service, error)

type registration struct {
	version semver.Version
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string][]registration)
)

// Register adds a factory for the named service at the given version.  Registering
// the same name and version twice replaces the earlier factory.
func Register(name string, version string, f Factory) {
	v := semver.MustParse(version)
	registryMu.Lock()
	defer registryMu.Unlock()
	regs := registry[name]
	for i := range regs {
		if regs[i].version.Equals(v) {
			regs[i].factory = f
			return
		}
	}
	regs = append(regs, registration{v, f})
	sort.Slice(regs, func(i, j int) bool { return regs[i].version.LT(regs[j].version) })
	registry[name] = regs
}

// Versions returns the registered versions of a named service in ascending order.
func Versions(name string) []semver.Version {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var versions []semver.Version
	for _, reg := range registry[name] {
		versions = append(versions, reg.version)
	}
	return versions
}

// New returns the named service using the highest registered version that is not
// newer than the requested one and has the same major version.  The version string
// is parsed leniently, so "0.7", "v1" and "1.0.0" are all accepted.
func New(name, version string, opts Options) (Service, error) {
	requested, err := semver.ParseTolerant(version)
	if err != nil {
		return nil, fmt.Errorf("bad %s API version %q: %v", name, version, err)
	}
	registryMu.RLock()
	regs := registry[name]
	var chosen *registration
	for i := range regs {
		reg := regs[i]
		if reg.version.Major == requested.Major && reg.version.LTE(requested) {
			chosen = &reg
		}
	}
	registryMu.RUnlock()
	if len(regs) == 0 {
		return nil, fmt.Errorf("no remote service registered with name %q", name)
	}
	if chosen == nil {
		return nil, fmt.Errorf("no %s implementation compatible with API version %s", name, requested)
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("%s service needs a transport", name)
	}
	ndio.Debugf("Using %s API version %s for requested version %s\n", name, chosen.version, requested)
	return chosen.factory(chosen.version, opts)
}

// serviceCodec returns the override codec if one is named, else the default.
func serviceCodec(opts Options, def codec.Codec) (codec.Codec, error) {
	if opts.Codec == "" {
		return def, nil
	}
	return codec.Get(opts.Codec)
}
