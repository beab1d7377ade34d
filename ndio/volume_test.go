package ndio

import (
	. "github.com/janelia-flyem/go/gocheck"
)

type VolumeSuite struct{}

var _ = Suite(&VolumeSuite{})

func rampVolume(t DataType, shape ...int) *Volume {
	v := NewVolume(t, shape...)
	for i := 0; i < v.NumVoxels(); i++ {
		v.SetValue(i, uint64(i))
	}
	return v
}

func (s *VolumeSuite) TestNewVolume(c *C) {
	v := NewVolume(T_uint16, 2, 3, 4)
	c.Assert(v.NumDims(), Equals, 3)
	c.Assert(v.NumVoxels(), Equals, 24)
	c.Assert(v.NumBytes(), Equals, 48)
	c.Assert(v.Index(1, 2, 3), Equals, 23)

	_, err := NewVolumeFromData(T_uint8, []int{2, 2, 2}, make([]byte, 7))
	c.Assert(err, NotNil)
	w, err := NewVolumeFromData(T_uint8, []int{2, 2, 2}, make([]byte, 8))
	c.Assert(err, IsNil)
	c.Assert(w.NumVoxels(), Equals, 8)
}

func (s *VolumeSuite) TestSubVolumeAndPaste(c *C) {
	v := rampVolume(T_uint16, 4, 5, 6)
	sub, err := v.SubVolume([]int{1, 2, 3}, []int{2, 2, 3})
	c.Assert(err, IsNil)
	c.Assert(sub.Shape, DeepEquals, []int{2, 2, 3})
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				c.Assert(sub.Value(sub.Index(z, y, x)), Equals, v.Value(v.Index(z+1, y+2, x+3)))
			}
		}
	}

	dst := NewVolume(T_uint16, 4, 5, 6)
	c.Assert(dst.Paste(sub, []int{1, 2, 3}), IsNil)
	c.Assert(dst.Value(dst.Index(2, 3, 5)), Equals, v.Value(v.Index(2, 3, 5)))
	c.Assert(dst.Value(dst.Index(0, 0, 0)), Equals, uint64(0))

	_, err = v.SubVolume([]int{3, 0, 0}, []int{2, 1, 1})
	c.Assert(err, NotNil)
	c.Assert(dst.Paste(sub, []int{3, 4, 4}), NotNil)
	c.Assert(dst.Paste(NewVolume(T_uint8, 1, 1, 1), []int{0, 0, 0}), NotNil)
}

func (s *VolumeSuite) TestTimeSeries(c *C) {
	v := rampVolume(T_uint8, 3, 2, 2, 2)
	sub, err := v.SubVolume([]int{1, 0, 1, 0}, []int{2, 2, 1, 2})
	c.Assert(err, IsNil)
	c.Assert(sub.Value(sub.Index(1, 1, 0, 1)), Equals, v.Value(v.Index(2, 1, 1, 1)))

	whole := NewVolume(T_uint8, 3, 2, 2, 2)
	c.Assert(whole.Paste(v, []int{0, 0, 0, 0}), IsNil)
	c.Assert(whole.Equals(v), Equals, true)
}

func (s *VolumeSuite) TestConvert(c *C) {
	v := NewVolume(T_uint16, 1, 1, 3)
	v.SetValue(0, 7)
	v.SetValue(1, 300)
	v.SetValue(2, 65535)

	u8, err := v.Convert(T_uint8)
	c.Assert(err, IsNil)
	c.Assert(u8.Type, Equals, T_uint8)
	c.Assert(u8.Value(0), Equals, uint64(7))
	c.Assert(u8.Value(1), Equals, uint64(300%256))
	c.Assert(u8.Value(2), Equals, uint64(255))

	u64, err := v.Convert(T_uint64)
	c.Assert(err, IsNil)
	c.Assert(u64.Value(2), Equals, uint64(65535))

	f32, err := v.Convert(T_float32)
	c.Assert(err, IsNil)
	c.Assert(f32.Float(1), Equals, float64(300))

	same, err := v.Convert(T_uint16)
	c.Assert(err, IsNil)
	c.Assert(same == v, Equals, true)

	c.Assert(u64.Equals(v), Equals, false)
	c.Assert(v.Equals(rampVolume(T_uint16, 1, 1, 3)), Equals, false)
}
