package grid

import (
	"github.com/janelia-flyem/ndio/ndio"
)

// axisCells returns the block-wide intervals that tile the snapped span, or nil for an
// empty span.
func axisCells(s ndio.Span, origin, blockSize int32) []ndio.Span {
	if s.Empty() {
		return nil
	}
	snapped := SnapSpan(s, origin, blockSize)
	cells := make([]ndio.Span, 0, (snapped.Stop-snapped.Start)/blockSize)
	for lo := snapped.Start; lo < snapped.Stop; lo += blockSize {
		cells = append(cells, ndio.Span{Start: lo, Stop: lo + blockSize})
	}
	return cells
}

// BlockCompute returns the block-aligned sub-cubes covering box, ordered with x as the
// outermost loop and z as the innermost.  Each sub-cube is exactly one storage cell.
// A box that is empty along any axis gives an empty plan.
func BlockCompute(box ndio.Subvolume, origin, blockSize ndio.Point3d) ([]ndio.Subvolume, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	if box.Empty() {
		return nil, nil
	}
	xs := axisCells(box.Span(0), origin[0], blockSize[0])
	ys := axisCells(box.Span(1), origin[1], blockSize[1])
	zs := axisCells(box.Span(2), origin[2], blockSize[2])

	plan := make([]ndio.Subvolume, 0, len(xs)*len(ys)*len(zs))
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				plan = append(plan, ndio.NewSubvolume(x, y, z))
			}
		}
	}
	return plan, nil
}

// NumBlocks returns the number of sub-cubes BlockCompute would plan for box.
func NumBlocks(box ndio.Subvolume, origin, blockSize ndio.Point3d) (int, error) {
	if err := box.Validate(); err != nil {
		return 0, err
	}
	if err := checkBlockSize(blockSize); err != nil {
		return 0, err
	}
	if box.Empty() {
		return 0, nil
	}
	snapped := SnapSubvolume(box, origin, blockSize)
	n := 1
	for axis := 0; axis < 3; axis++ {
		n *= int((snapped.Stop[axis] - snapped.Start[axis]) / blockSize[axis])
	}
	return n, nil
}
