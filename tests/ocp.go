package tests

import (
	"net/http"
	"strconv"

	"github.com/zenazn/goji/web"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/ndio"
)

// NewOCPServer returns a fake OCP server serving ch as token/channel.  Cutouts are
// served with zlib-compressed npy bodies under both the /ocp/ca and /sd prefixes.
func NewOCPServer(ch *Channel, token, channel string) *Server {
	s := newServer(ch)
	s.mux.Get("/ocp/ca/"+token+"/info/", func(w http.ResponseWriter, r *http.Request) {
		cubes := make(map[string][]int32)
		offsets := make(map[string][]int32)
		resolutions := make([]int, ch.NumResolutions)
		origin := ch.Origin()
		for res := 0; res < ch.NumResolutions; res++ {
			key := strconv.Itoa(res)
			cubes[key] = []int32{ch.BlockSize[0], ch.BlockSize[1], ch.BlockSize[2]}
			offsets[key] = []int32{origin[0], origin[1], origin[2]}
			resolutions[res] = res
		}
		timerange := []int{0, 0}
		if ch.TimeSamples > 0 {
			timerange[1] = ch.TimeSamples
		}
		writeJSON(w, map[string]interface{}{
			"dataset": map[string]interface{}{
				"cube_dimension": cubes,
				"offset":         offsets,
				"resolutions":    resolutions,
				"timerange":      timerange,
			},
			"channels": map[string]interface{}{
				channel: map[string]interface{}{
					"datatype":     ch.Type.String(),
					"channel_type": "image",
				},
			},
		})
	})

	handler := func(c web.C, w http.ResponseWriter, r *http.Request) {
		s.ocpCutout(c, w, r)
	}
	for _, prefix := range []string{"/ocp/ca/", "/sd/"} {
		cutout := prefix + token + "/" + channel + "/npz/:res/:x0,:x1/:y0,:y1/:z0,:z1/"
		s.mux.Get(cutout, handler)
		s.mux.Post(cutout, handler)
		s.mux.Get(cutout+":t0,:t1/", handler)
		s.mux.Post(cutout+":t0,:t1/", handler)
	}
	return s
}

func (s *Server) ocpCutout(c web.C, w http.ResponseWriter, r *http.Request) {
	var spans [3]ndio.Span
	for i, axis := range []string{"x", "y", "z"} {
		span, err := ndio.StringToSpan(c.URLParams[axis+"0"]+","+c.URLParams[axis+"1"], ",")
		if err != nil {
			badRequest(w, "%v", err)
			return
		}
		spans[i] = span
	}
	var t *ndio.Span
	if t0, found := c.URLParams["t0"]; found {
		span, err := ndio.StringToSpan(t0+","+c.URLParams["t1"], ",")
		if err != nil {
			badRequest(w, "%v", err)
			return
		}
		t = &span
	}
	if !s.checkResolution(w, c.URLParams["res"]) {
		return
	}
	s.serveCutout(w, r, codec.NPZ{}, ndio.NewSubvolume(spans[0], spans[1], spans[2]), t)
}
