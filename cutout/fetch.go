package cutout

import (
	"context"
	"net/http"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/grid"
	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/remote"
	"github.com/janelia-flyem/ndio/transport"
)

// Fetch returns the voxels of a channel within the half-open ranges x, y and z at the
// given resolution, with shape (z,y,x), or (t,z,y,x) if a time range is given.
//
// An empty range on any axis returns an empty uint8 volume without contacting the
// remote.  Any failed block request cancels the rest and fails the whole fetch.
func (c *Client) Fetch(ctx context.Context, res remote.Resource, resolution int, x, y, z ndio.Span, t *ndio.Span) (*ndio.Volume, error) {
	box := ndio.NewSubvolume(x, y, z)
	if err := checkRanges(box, t); err != nil {
		return nil, err
	}
	shape := volumeShape(box, t)
	if isEmpty(box, t) {
		return ndio.NewVolume(ndio.T_uint8, shape...), nil
	}
	timedLog := ndio.NewTimeLog()
	info, err := c.service.ChannelInfo(ctx, res)
	if err != nil {
		return nil, err
	}
	if err := info.CheckResolution(resolution); err != nil {
		return nil, err
	}

	numVoxels := box.NumVoxels()
	if t != nil {
		numVoxels *= int64(t.Extent())
	}
	var vol *ndio.Volume
	var numBlocks int
	if numVoxels < c.config.ChunkThreshold {
		numBlocks = 1
		if vol, err = c.getBlock(ctx, res, resolution, box, t, info.DataType); err != nil {
			return nil, err
		}
	} else {
		origin, blockSize := info.Grid(resolution)
		plan, err := grid.BlockCompute(box, origin, blockSize)
		if err != nil {
			return nil, err
		}
		numBlocks = len(plan)
		ndio.Debugf("Fetching %s as %d blocks covering %s\n", res, numBlocks, grid.SnapSubvolume(box, origin, blockSize))
		if vol, err = c.fetchBlocks(ctx, res, resolution, box, t, info.DataType, plan); err != nil {
			return nil, err
		}
	}
	desc := describe(res, resolution, box, t)
	timedLog.Debugf("Fetched %s of %s in %d requests", humanize.Bytes(uint64(vol.NumBytes())), desc, numBlocks)
	c.notify(Activity{
		Action:     ActionFetch,
		Service:    c.service.Name(),
		Resource:   res.String(),
		Resolution: resolution,
		Box:        box,
		Time:       t,
		Bytes:      vol.NumBytes(),
		Blocks:     numBlocks,
		Elapsed:    timedLog.Elapsed(),
	})
	return vol, nil
}

// fetchBlocks requests every sub-cube of the plan clipped to box and pastes the
// results into one volume sized to box.
func (c *Client) fetchBlocks(ctx context.Context, res remote.Resource, resolution int, box ndio.Subvolume, t *ndio.Span,
	dtype ndio.DataType, plan []ndio.Subvolume) (*ndio.Volume, error) {

	out := ndio.NewVolume(dtype, volumeShape(box, t)...)
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
			block, err := c.getBlock(gctx, res, resolution, clipped, t, dtype)
			if err != nil {
				return err
			}
			// Clipped sub-cubes never overlap, so pastes write disjoint bytes.
			return out.Paste(block, volumeOffset(clipped, box, t))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// getBlock issues one GET for exactly box and decodes the body.
func (c *Client) getBlock(ctx context.Context, res remote.Resource, resolution int, box ndio.Subvolume, t *ndio.Span,
	dtype ndio.DataType) (*ndio.Volume, error) {

	url, err := c.service.CutoutURL(res, resolution, box, t)
	if err != nil {
		return nil, err
	}
	status, body, err := c.send(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if err := transport.CheckStatus(http.MethodGet, url, status, body); err != nil {
		return nil, err
	}
	return c.service.Codec().Decode(body, codec.Spec{Type: dtype, Shape: volumeShape(box, t)})
}
