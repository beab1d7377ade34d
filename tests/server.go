package tests

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/zenazn/goji/web"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/ndio"
)

// Server is a fake remote volume service serving one channel.
type Server struct {
	*httptest.Server
	Channel *Channel

	// Token, if set, must be presented as "Authorization: Token <Token>".
	Token string

	mux *web.Mux

	mu       sync.Mutex
	requests []string
	failFn   func(method, path string) int
}

func newServer(ch *Channel) *Server {
	s := &Server{Channel: ch, mux: web.New()}
	s.mux.Use(s.middleware)
	s.Server = httptest.NewServer(s.mux)
	return s
}

// middleware records requests, checks the token and applies any injected failure.
func (s *Server) middleware(c *web.C, h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		failFn := s.failFn
		token := s.Token
		s.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Token "+token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if failFn != nil {
			if status := failFn(r.Method, r.URL.Path); status != 0 {
				http.Error(w, "injected failure", status)
				return
			}
		}
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// FailWith makes the server answer with the returned status whenever fn returns
// non-zero.  Pass nil to stop injecting failures.
func (s *Server) FailWith(fn func(method, path string) int) {
	s.mu.Lock()
	s.failFn = fn
	s.mu.Unlock()
}

// Requests returns "METHOD /path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests returns how many requests had the given method and path prefix.
func (s *Server) CountRequests(method, prefix string) int {
	var n int
	for _, req := range s.Requests() {
		if strings.HasPrefix(req, method+" "+prefix) {
			n++
		}
	}
	return n
}

// ResetRequests forgets the recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func badRequest(w http.ResponseWriter, format string, args ...interface{}) {
	http.Error(w, fmt.Sprintf(format, args...), http.StatusBadRequest)
}

// serveCutout answers a GET or POST for box with the given codec.
func (s *Server) serveCutout(w http.ResponseWriter, r *http.Request, c codec.Codec, box ndio.Subvolume, t *ndio.Span) {
	switch r.Method {
	case http.MethodGet:
		v, err := s.Channel.Read(box, t)
		if err != nil {
			badRequest(w, "%v", err)
			return
		}
		data, err := c.Encode(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", c.ContentType())
		w.Write(data)
	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			badRequest(w, "%v", err)
			return
		}
		size := box.Size()
		shape := []int{int(size[2]), int(size[1]), int(size[0])}
		if s.Channel.TimeSamples > 0 {
			tspan := ndio.Span{Start: 0, Stop: 1}
			if t != nil {
				tspan = *t
			}
			shape = append([]int{int(tspan.Extent())}, shape...)
		}
		v, err := c.Decode(body, codec.Spec{Type: s.Channel.Type, Shape: shape})
		if err != nil {
			badRequest(w, "%v", err)
			return
		}
		if err := s.Channel.Write(box, t, v); err != nil {
			badRequest(w, "%v", err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) checkResolution(w http.ResponseWriter, resStr string) bool {
	res, err := strconv.Atoi(resStr)
	if err != nil || res < 0 || res >= s.Channel.NumResolutions {
		badRequest(w, "bad resolution %q", resStr)
		return false
	}
	return true
}
