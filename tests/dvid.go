package tests

import (
	"net/http"

	"github.com/zenazn/goji/web"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/ndio"
)

// NewDVIDServer returns a fake DVID server serving ch as a uint8blk-style data
// instance.  Raw 0_1_2 cutouts honor the "compression" query string.
func NewDVIDServer(ch *Channel, uuid, name string) *Server {
	s := newServer(ch)
	prefix := "/api/node/" + uuid + "/" + name
	s.mux.Get(prefix+"/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"Base": map[string]interface{}{
				"TypeName": ch.Type.String() + "blk",
				"Name":     name,
			},
			"Extended": map[string]interface{}{
				"BlockSize": []int32{ch.BlockSize[0], ch.BlockSize[1], ch.BlockSize[2]},
				"Values": []map[string]interface{}{
					{"DataType": ch.Type.String(), "Label": name},
				},
				"MinPoint": ch.Extent.Start,
				"MaxPoint": ch.Extent.Stop.Sub(ndio.Point3d{1, 1, 1}),
			},
		})
	})
	handler := func(c web.C, w http.ResponseWriter, r *http.Request) {
		s.dvidCutout(c, w, r)
	}
	s.mux.Get(prefix+"/raw/0_1_2/:size/:offset", handler)
	s.mux.Post(prefix+"/raw/0_1_2/:size/:offset", handler)
	return s
}

func (s *Server) dvidCutout(c web.C, w http.ResponseWriter, r *http.Request) {
	size, err := ndio.StringToPoint3d(c.URLParams["size"], "_")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	offset, err := ndio.StringToPoint3d(c.URLParams["offset"], "_")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	comp := codec.Compression(r.URL.Query().Get("compression"))
	switch comp {
	case codec.Uncompressed, codec.LZ4, codec.Gzip, codec.Snappy:
	default:
		badRequest(w, "unknown compression %q", comp)
		return
	}
	s.serveCutout(w, r, codec.Raw{Compression: comp}, ndio.NewSubvolumeFromSize(offset, size), nil)
}
