/*
	Package tests provides in-process fake Boss, OCP and DVID servers backed by in-memory
	volumes, so cutout code in other packages can be tested end to end over HTTP.
*/
package tests

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/janelia-flyem/ndio/ndio"
)

func init() {
	ndio.SetLogMode(ndio.WarningMode)
}

// Channel is an in-memory channel covering a fixed extent, addressed in absolute
// voxel coordinates.  It is safe for concurrent use.
type Channel struct {
	Type           ndio.DataType
	Extent         ndio.Subvolume
	BlockSize      ndio.Point3d
	NumResolutions int

	// TimeSamples is zero for a spatial-only channel.
	TimeSamples int

	mu   sync.RWMutex
	data *ndio.Volume
}

// NewChannel returns a zeroed channel.  Its grid origin is the extent start.
func NewChannel(t ndio.DataType, extent ndio.Subvolume, blockSize ndio.Point3d, timeSamples int) *Channel {
	size := extent.Size()
	shape := []int{int(size[2]), int(size[1]), int(size[0])}
	if timeSamples > 0 {
		shape = append([]int{timeSamples}, shape...)
	}
	return &Channel{
		Type:           t,
		Extent:         extent,
		BlockSize:      blockSize,
		NumResolutions: 4,
		TimeSamples:    timeSamples,
		data:           ndio.NewVolume(t, shape...),
	}
}

// Origin is where the channel's storage grid begins.
func (ch *Channel) Origin() ndio.Point3d {
	return ch.Extent.Start
}

// Fill sets every sample to a pseudo-random value derived from seed.
func (ch *Channel) Fill(seed int64) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	rand.New(rand.NewSource(seed)).Read(ch.data.Data)
}

// Volume returns a copy of all stored samples.
func (ch *Channel) Volume() *ndio.Volume {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	data := make([]byte, len(ch.data.Data))
	copy(data, ch.data.Data)
	v, _ := ndio.NewVolumeFromData(ch.Type, ch.data.Shape, data)
	return v
}

// region converts an absolute box and time range into an offset and size in the
// stored volume's axis order.
func (ch *Channel) region(box ndio.Subvolume, t *ndio.Span) (offset, size []int, err error) {
	if !ch.Extent.Contains(box) || box.Validate() != nil {
		return nil, nil, fmt.Errorf("box %s outside channel extent %s", box, ch.Extent)
	}
	start := box.Start.Sub(ch.Extent.Start)
	extent := box.Size()
	offset = []int{int(start[2]), int(start[1]), int(start[0])}
	size = []int{int(extent[2]), int(extent[1]), int(extent[0])}
	if ch.TimeSamples > 0 {
		tspan := ndio.Span{Start: 0, Stop: 1}
		if t != nil {
			tspan = *t
		}
		if tspan.Start < 0 || tspan.Stop > int32(ch.TimeSamples) || tspan.Validate("t") != nil {
			return nil, nil, fmt.Errorf("time range %s outside [0,%d)", tspan, ch.TimeSamples)
		}
		offset = append([]int{int(tspan.Start)}, offset...)
		size = append([]int{int(tspan.Extent())}, size...)
	} else if t != nil {
		return nil, nil, fmt.Errorf("channel has no time axis")
	}
	return offset, size, nil
}

// Read returns the samples within box, with a leading time axis if the channel has one.
func (ch *Channel) Read(box ndio.Subvolume, t *ndio.Span) (*ndio.Volume, error) {
	offset, size, err := ch.region(box, t)
	if err != nil {
		return nil, err
	}
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.data.SubVolume(offset, size)
}

// Write stores v into box.
func (ch *Channel) Write(box ndio.Subvolume, t *ndio.Span, v *ndio.Volume) error {
	offset, size, err := ch.region(box, t)
	if err != nil {
		return err
	}
	if len(size) != len(v.Shape) {
		return fmt.Errorf("volume shape %v does not match region %v", v.Shape, size)
	}
	for i := range size {
		if size[i] != v.Shape[i] {
			return fmt.Errorf("volume shape %v does not match region %v", v.Shape, size)
		}
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.data.Paste(v, offset)
}
