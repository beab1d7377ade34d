package grid

import (
	"fmt"

	"github.com/janelia-flyem/ndio/ndio"
)

// floorDiv returns floor(a / b) for b > 0.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// ceilDiv returns ceil(a / b) for b > 0.
func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}

// SnapToCube returns the smallest block-aligned interval [lo, hi) containing [start, stop)
// for a grid of the given block size whose first cell begins at origin.  A start or stop
// already on a cell boundary is returned unchanged, so SnapToCube(2, 3, 16, 1) is (1, 17).
// The block size must be positive.
func SnapToCube(start, stop, origin, blockSize int32) (lo, hi int32) {
	size := int64(blockSize)
	relStart := int64(start) - int64(origin)
	relStop := int64(stop) - int64(origin)
	lo = int32(floorDiv(relStart, size)*size + int64(origin))
	hi = int32(ceilDiv(relStop, size)*size + int64(origin))
	return
}

// SnapSpan applies SnapToCube to a span.
func SnapSpan(s ndio.Span, origin, blockSize int32) ndio.Span {
	lo, hi := SnapToCube(s.Start, s.Stop, origin, blockSize)
	return ndio.Span{Start: lo, Stop: hi}
}

// SnapSubvolume snaps each spatial axis of box to the block grid.
func SnapSubvolume(box ndio.Subvolume, origin, blockSize ndio.Point3d) ndio.Subvolume {
	var snapped ndio.Subvolume
	for axis := uint8(0); axis < 3; axis++ {
		span := SnapSpan(box.Span(axis), origin[axis], blockSize[axis])
		snapped.Start[axis] = span.Start
		snapped.Stop[axis] = span.Stop
	}
	return snapped
}

// IsAligned returns true if both ends of the span fall on cell boundaries.
func IsAligned(s ndio.Span, origin, blockSize int32) bool {
	return SnapSpan(s, origin, blockSize) == s
}

func checkBlockSize(blockSize ndio.Point3d) error {
	if !blockSize.Positive() {
		return fmt.Errorf("block size %s must be positive on every axis: %w", blockSize, ndio.ErrInvalidRange)
	}
	return nil
}
