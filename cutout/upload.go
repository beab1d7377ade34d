package cutout

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/ndio/grid"
	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/remote"
	"github.com/janelia-flyem/ndio/transport"
)

// Upload writes vol into the half-open ranges x, y and z of a channel at the given
// resolution.  The volume shape must be (z,y,x), or (t,z,y,x) with a time range, and
// match the ranges exactly.  Samples are cast to the channel datatype if they differ.
//
// Large uploads are split into blocks aligned to the upload start.  A failed block
// cancels the rest; blocks already written are not rolled back.
func (c *Client) Upload(ctx context.Context, res remote.Resource, resolution int, x, y, z ndio.Span, vol *ndio.Volume, t *ndio.Span) error {
	box := ndio.NewSubvolume(x, y, z)
	if err := checkRanges(box, t); err != nil {
		return err
	}
	if vol == nil {
		return fmt.Errorf("no volume given for upload to %s: %w", res, ndio.ErrShapeMismatch)
	}
	if err := checkShape(vol, box, t); err != nil {
		return err
	}
	if isEmpty(box, t) {
		return nil
	}
	timedLog := ndio.NewTimeLog()
	info, err := c.service.ChannelInfo(ctx, res)
	if err != nil {
		return err
	}
	if err := info.CheckResolution(resolution); err != nil {
		return err
	}
	if vol.Type != info.DataType {
		ndio.Debugf("Casting %s upload to %s for channel %s\n", vol.Type, info.DataType, res)
		if vol, err = vol.Convert(info.DataType); err != nil {
			return err
		}
	}

	var numBlocks int
	if int64(vol.NumBytes()) < c.config.ChunkThreshold {
		numBlocks = 1
		if err := c.postBlock(ctx, res, resolution, box, t, vol); err != nil {
			return err
		}
	} else {
		_, blockSize := info.Grid(resolution)
		plan, err := grid.BlockCompute(box, box.Start, blockSize)
		if err != nil {
			return err
		}
		numBlocks = len(plan)
		if err := c.uploadBlocks(ctx, res, resolution, box, t, vol, plan); err != nil {
			return err
		}
	}
	desc := describe(res, resolution, box, t)
	timedLog.Debugf("Uploaded %s to %s in %d requests", humanize.Bytes(uint64(vol.NumBytes())), desc, numBlocks)
	c.notify(Activity{
		Action:     ActionUpload,
		Service:    c.service.Name(),
		Resource:   res.String(),
		Resolution: resolution,
		Box:        box,
		Time:       t,
		Bytes:      vol.NumBytes(),
		Blocks:     numBlocks,
		Elapsed:    timedLog.Elapsed(),
	})
	return nil
}

// checkShape returns ndio.ErrShapeMismatch unless vol has exactly the extents of box
// and t in (t,)z,y,x order.
func checkShape(vol *ndio.Volume, box ndio.Subvolume, t *ndio.Span) error {
	expected := volumeShape(box, t)
	mismatch := len(vol.Shape) != len(expected)
	for i := 0; !mismatch && i < len(expected); i++ {
		mismatch = vol.Shape[i] != expected[i]
	}
	if mismatch {
		return fmt.Errorf("volume shape %v does not match requested extents %v: %w", vol.Shape, expected, ndio.ErrShapeMismatch)
	}
	return nil
}

// uploadBlocks posts the part of vol inside each sub-cube, clipped to the box stop.
func (c *Client) uploadBlocks(ctx context.Context, res remote.Resource, resolution int, box ndio.Subvolume, t *ndio.Span,
	vol *ndio.Volume, plan []ndio.Subvolume) error {

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)
	for _, sub := range plan {
		if gctx.Err() != nil {
			break
		}
		clipped, ok := sub.Intersect(box)
		if !ok {
			continue
		}
		g.Go(func() error {
			block, err := vol.SubVolume(volumeOffset(clipped, box, t), volumeShape(clipped, t))
			if err != nil {
				return err
			}
			return c.postBlock(gctx, res, resolution, clipped, t, block)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// postBlock encodes vol and POSTs it to exactly box.
func (c *Client) postBlock(ctx context.Context, res remote.Resource, resolution int, box ndio.Subvolume, t *ndio.Span,
	vol *ndio.Volume) error {

	url, err := c.service.CutoutURL(res, resolution, box, t)
	if err != nil {
		return err
	}
	data, err := c.service.Codec().Encode(vol)
	if err != nil {
		return err
	}
	status, body, err := c.send(ctx, http.MethodPost, url, data)
	if err != nil {
		return err
	}
	return transport.CheckStatus(http.MethodPost, url, status, body, http.StatusOK, http.StatusCreated)
}
