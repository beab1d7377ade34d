package ndio

import (
	"fmt"
	"strconv"
	"strings"
)

// Point3d is an ordered list of three 32-bit signed integers in (x, y, z) order.
type Point3d [3]int32

// Add returns the addition of two points.
func (p Point3d) Add(p2 Point3d) Point3d {
	return Point3d{
		p[0] + p2[0],
		p[1] + p2[1],
		p[2] + p2[2],
	}
}

// Sub returns the subtraction of the passed point from the receiver.
func (p Point3d) Sub(p2 Point3d) Point3d {
	return Point3d{
		p[0] - p2[0],
		p[1] - p2[1],
		p[2] - p2[2],
	}
}

// Max returns a Point where each of its elements are the maximum of two points' elements.
func (p Point3d) Max(p2 Point3d) Point3d {
	result := p
	for i := 0; i < 3; i++ {
		if p[i] < p2[i] {
			result[i] = p2[i]
		}
	}
	return result
}

// Min returns a Point where each of its elements are the minimum of two points' elements.
func (p Point3d) Min(p2 Point3d) Point3d {
	result := p
	for i := 0; i < 3; i++ {
		if p[i] > p2[i] {
			result[i] = p2[i]
		}
	}
	return result
}

// Prod returns the product of the components.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

// Positive returns true if every component is greater than zero.
func (p Point3d) Positive() bool {
	return p[0] > 0 && p[1] > 0 && p[2] > 0
}

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// StringToPoint3d parses a string like "64,64,16" or "64_64_16" into a Point3d.
func StringToPoint3d(str, separator string) (Point3d, error) {
	var p Point3d
	elems := strings.Split(str, separator)
	if len(elems) != 3 {
		return p, fmt.Errorf("cannot convert %q into a 3d point", str)
	}
	for i, elem := range elems {
		v, err := strconv.ParseInt(strings.TrimSpace(elem), 10, 32)
		if err != nil {
			return p, fmt.Errorf("bad coordinate %q in %q: %v", elem, str, err)
		}
		p[i] = int32(v)
	}
	return p, nil
}
