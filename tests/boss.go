package tests

import (
	"net/http"

	"github.com/zenazn/goji/web"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/ndio"
)

// BossFrame is the coordinate frame name reported by the fake Boss.
const BossFrame = "test_frame"

// NewBossServer returns a fake Boss v1 API serving ch as collection/experiment/channel.
// Cutouts use gzipped npy bodies and are only served at resolution 0 or below
// ch.NumResolutions.
func NewBossServer(ch *Channel, collection, experiment, channel string) *Server {
	s := newServer(ch)
	prefix := "/v1/collection/" + collection + "/experiment/" + experiment
	s.mux.Get(prefix+"/channel/"+channel+"/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"name":            channel,
			"datatype":        ch.Type.String(),
			"base_resolution": 0,
			"type":            "image",
		})
	})
	s.mux.Get(prefix+"/", func(w http.ResponseWriter, r *http.Request) {
		samples := ch.TimeSamples
		if samples == 0 {
			samples = 1
		}
		writeJSON(w, map[string]interface{}{
			"name":                 experiment,
			"collection":           collection,
			"coord_frame":          BossFrame,
			"channels":             []string{channel},
			"num_hierarchy_levels": ch.NumResolutions,
			"num_time_samples":     samples,
		})
	})
	s.mux.Get("/v1/coord/"+BossFrame+"/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"name":    BossFrame,
			"x_start": ch.Extent.Start[0],
			"x_stop":  ch.Extent.Stop[0],
			"y_start": ch.Extent.Start[1],
			"y_stop":  ch.Extent.Stop[1],
			"z_start": ch.Extent.Start[2],
			"z_stop":  ch.Extent.Stop[2],
		})
	})

	cutout := "/v1/cutout/" + collection + "/" + experiment + "/" + channel + "/:res/:x/:y/:z/"
	handler := func(c web.C, w http.ResponseWriter, r *http.Request) {
		s.bossCutout(c, w, r)
	}
	s.mux.Get(cutout, handler)
	s.mux.Post(cutout, handler)
	s.mux.Get(cutout+":t/", handler)
	s.mux.Post(cutout+":t/", handler)
	return s
}

func (s *Server) bossCutout(c web.C, w http.ResponseWriter, r *http.Request) {
	var spans [3]ndio.Span
	for i, key := range []string{"x", "y", "z"} {
		span, err := ndio.StringToSpan(c.URLParams[key], ":")
		if err != nil {
			badRequest(w, "%v", err)
			return
		}
		spans[i] = span
	}
	var t *ndio.Span
	if tstr, found := c.URLParams["t"]; found {
		span, err := ndio.StringToSpan(tstr, ":")
		if err != nil {
			badRequest(w, "%v", err)
			return
		}
		t = &span
	}
	if !s.checkResolution(w, c.URLParams["res"]) {
		return
	}
	s.serveCutout(w, r, codec.NPYGzip{}, ndio.NewSubvolume(spans[0], spans[1], spans[2]), t)
}
