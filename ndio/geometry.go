package ndio

import (
	"fmt"
	"strconv"
	"strings"
)

var axisNames = [3]string{"x", "y", "z"}

// AxisName returns "x", "y" or "z" for spatial axes 0-2.
func AxisName(axis uint8) string {
	if int(axis) < len(axisNames) {
		return axisNames[axis]
	}
	return fmt.Sprintf("axis %d", axis)
}

// Span is a half-open integer interval [Start, Stop) along one axis.
type Span struct {
	Start int32
	Stop  int32
}

// Extent returns the number of coordinates covered by the span.
func (s Span) Extent() int32 {
	if s.Stop < s.Start {
		return 0
	}
	return s.Stop - s.Start
}

// Empty returns true for a zero-length span.
func (s Span) Empty() bool {
	return s.Stop <= s.Start
}

// Validate returns ErrInvalidRange if Start > Stop.
func (s Span) Validate(name string) error {
	if s.Start > s.Stop {
		return fmt.Errorf("%s range %s has start after stop: %w", name, s, ErrInvalidRange)
	}
	return nil
}

// Intersect returns the overlap of two spans, which may be empty.
func (s Span) Intersect(s2 Span) Span {
	out := s
	if s2.Start > out.Start {
		out.Start = s2.Start
	}
	if s2.Stop < out.Stop {
		out.Stop = s2.Stop
	}
	if out.Stop < out.Start {
		out.Stop = out.Start
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.Stop)
}

// StringToSpan parses a string like "10:20" or "10,20" into a Span.
func StringToSpan(str, separator string) (Span, error) {
	elems := strings.Split(str, separator)
	if len(elems) != 2 {
		return Span{}, fmt.Errorf("cannot convert %q into a range", str)
	}
	var bounds [2]int32
	for i, elem := range elems {
		v, err := strconv.ParseInt(strings.TrimSpace(elem), 10, 32)
		if err != nil {
			return Span{}, fmt.Errorf("bad bound %q in %q: %v", elem, str, err)
		}
		bounds[i] = int32(v)
	}
	return Span{bounds[0], bounds[1]}, nil
}

// Subvolume is a half-open 3d bounding box: Start is inclusive, Stop is exclusive
// on every axis.
type Subvolume struct {
	Start Point3d
	Stop  Point3d
}

// NewSubvolume returns the bounding box given by per-axis spans.
func NewSubvolume(x, y, z Span) Subvolume {
	return Subvolume{
		Start: Point3d{x.Start, y.Start, z.Start},
		Stop:  Point3d{x.Stop, y.Stop, z.Stop},
	}
}

// NewSubvolumeFromSize returns the bounding box with given offset and size.
func NewSubvolumeFromSize(offset, size Point3d) Subvolume {
	return Subvolume{Start: offset, Stop: offset.Add(size)}
}

// Span returns the interval along the given axis.
func (s Subvolume) Span(axis uint8) Span {
	return Span{s.Start[axis], s.Stop[axis]}
}

// Size returns the extent along each axis.
func (s Subvolume) Size() Point3d {
	return Point3d{
		s.Span(0).Extent(),
		s.Span(1).Extent(),
		s.Span(2).Extent(),
	}
}

// NumVoxels returns the number of voxels within the box.
func (s Subvolume) NumVoxels() int64 {
	return s.Size().Prod()
}

// Empty returns true if any axis has zero extent.
func (s Subvolume) Empty() bool {
	return s.Span(0).Empty() || s.Span(1).Empty() || s.Span(2).Empty()
}

// Validate checks every axis for start > stop.
func (s Subvolume) Validate() error {
	for axis := uint8(0); axis < 3; axis++ {
		if err := s.Span(axis).Validate(AxisName(axis)); err != nil {
			return err
		}
	}
	return nil
}

// Intersect returns the overlap of two boxes and whether it holds any voxels.
func (s Subvolume) Intersect(s2 Subvolume) (Subvolume, bool) {
	start := s.Start.Max(s2.Start)
	out := Subvolume{Start: start, Stop: s.Stop.Min(s2.Stop).Max(start)}
	return out, !out.Empty()
}

// Contains returns true if s2 lies entirely within the receiver.
func (s Subvolume) Contains(s2 Subvolume) bool {
	for i := 0; i < 3; i++ {
		if s2.Start[i] < s.Start[i] || s2.Stop[i] > s.Stop[i] {
			return false
		}
	}
	return true
}

func (s Subvolume) String() string {
	return fmt.Sprintf("x%s y%s z%s", s.Span(0), s.Span(1), s.Span(2))
}
