/*
	Package cutout reads and writes rectangular cutouts of remote volumes.

	Small requests are served by a single request covering the exact box.  Requests at
	or above the client's chunk threshold are split into block-aligned sub-cubes that are
	transferred concurrently and reassembled, so no single request grows beyond what the
	remote service stores in one cell.  Volumes are always (t,)z,y,x in C order.
*/
package cutout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/remote"
	"github.com/janelia-flyem/ndio/transport"
)

const (
	// DefaultChunkThreshold is the request size at which cutouts are split into
	// block requests: voxels for fetches, bytes for uploads.
	DefaultChunkThreshold = 64 * ndio.Mega

	// DefaultConcurrency is the number of block requests in flight per cutout.
	DefaultConcurrency = 8
)

// Config holds the per-client cutout settings.
type Config struct {
	// ChunkThreshold is compared against the voxel count of a fetch (including
	// time samples) and the byte size of an upload.  Zero selects the default.
	ChunkThreshold int64

	// Concurrency bounds the block requests in flight.  Zero selects the default.
	Concurrency int

	// RequestTimeout bounds each request.  Zero means no timeout.
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ChunkThreshold <= 0 {
		c.ChunkThreshold = DefaultChunkThreshold
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	return c
}

// Client fetches and uploads cutouts through one remote service.  It is safe for
// concurrent use.
type Client struct {
	service   remote.Service
	transport transport.Transport
	config    Config

	mu       sync.RWMutex
	notifier Notifier
}

// NewClient returns a client sending cutout requests for svc over tr.
func NewClient(svc remote.Service, tr transport.Transport, config Config) *Client {
	return &Client{
		service:   svc,
		transport: tr,
		config:    config.withDefaults(),
	}
}

// SetNotifier registers a notifier told about every completed fetch and upload.
func (c *Client) SetNotifier(n Notifier) {
	c.mu.Lock()
	c.notifier = n
	c.mu.Unlock()
}

// Service returns the remote service used by the client.
func (c *Client) Service() remote.Service {
	return c.service
}

// Config returns the client settings with defaults applied.
func (c *Client) Config() Config {
	return c.config
}

// ChannelInfo returns the metadata of a channel from the client's service.
func (c *Client) ChannelInfo(ctx context.Context, res remote.Resource) (remote.ChannelInfo, error) {
	return c.service.ChannelInfo(ctx, res)
}

// send issues one request, applying the per-request timeout.
func (c *Client) send(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}
	return c.transport.Send(ctx, method, url, body)
}

// checkRanges validates every axis before any request is made.
func checkRanges(box ndio.Subvolume, t *ndio.Span) error {
	if err := box.Validate(); err != nil {
		return err
	}
	if t != nil {
		if err := t.Validate("t"); err != nil {
			return err
		}
	}
	return nil
}

// volumeShape returns the (t,)z,y,x shape of a cutout.
func volumeShape(box ndio.Subvolume, t *ndio.Span) []int {
	size := box.Size()
	shape := []int{int(size[2]), int(size[1]), int(size[0])}
	if t != nil {
		shape = append([]int{int(t.Extent())}, shape...)
	}
	return shape
}

// volumeOffset returns the (t,)z,y,x offset of sub within box.  Time is never chunked,
// so the time offset is always zero.
func volumeOffset(sub, box ndio.Subvolume, t *ndio.Span) []int {
	d := sub.Start.Sub(box.Start)
	offset := []int{int(d[2]), int(d[1]), int(d[0])}
	if t != nil {
		offset = append([]int{0}, offset...)
	}
	return offset
}

func isEmpty(box ndio.Subvolume, t *ndio.Span) bool {
	return box.Empty() || (t != nil && t.Empty())
}

func describe(res remote.Resource, resolution int, box ndio.Subvolume, t *ndio.Span) string {
	if t != nil {
		return fmt.Sprintf("%s res %d %s t%s", res, resolution, box, t)
	}
	return fmt.Sprintf("%s res %d %s", res, resolution, box)
}
