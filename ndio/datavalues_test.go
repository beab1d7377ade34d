package ndio

import (
	"encoding/json"

	. "github.com/janelia-flyem/go/gocheck"
)

type DatavalueSuite struct{}

var _ = Suite(&DatavalueSuite{})

func (s *DatavalueSuite) TestDataTypes(c *C) {
	c.Assert(T_uint8.Bytes(), Equals, 1)
	c.Assert(T_uint16.Bytes(), Equals, 2)
	c.Assert(T_uint64.Bytes(), Equals, 8)
	c.Assert(DataTypeBytes(T_float32), Equals, int32(4))
	c.Assert(T_uint16.String(), Equals, "uint16")
	c.Assert(T_uint64.Descr(), Equals, "<u8")

	t, err := ParseDataType("UINT64")
	c.Assert(err, IsNil)
	c.Assert(t, Equals, T_uint64)

	_, err = ParseDataType("complex64")
	c.Assert(err, NotNil)

	for _, descr := range []string{"|u1", "<u1", "=u1"} {
		t, err = DataTypeFromDescr(descr)
		c.Assert(err, IsNil)
		c.Assert(t, Equals, T_uint8)
	}
	t, err = DataTypeFromDescr("<f4")
	c.Assert(err, IsNil)
	c.Assert(t, Equals, T_float32)

	_, err = DataTypeFromDescr(">u2")
	c.Assert(err, NotNil)
}

func (s *DatavalueSuite) TestDataTypeJSON(c *C) {
	type info struct {
		DataType DataType
	}
	data, err := json.Marshal(info{T_int16})
	c.Assert(err, IsNil)
	c.Assert(string(data), Equals, `{"DataType":"int16"}`)

	var decoded info
	c.Assert(json.Unmarshal(data, &decoded), IsNil)
	c.Assert(decoded.DataType, Equals, T_int16)

	c.Assert(json.Unmarshal([]byte(`{"DataType":"complex64"}`), &decoded), NotNil)
}
