package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/janelia-flyem/ndio/ndio"
)

func TestSendHeaders(t *testing.T) {
	var gotAuth, gotID, gotType, gotAccept, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get(RequestIDHeader)
		gotType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))
	defer ts.Close()

	tr, err := NewHTTP(Config{
		Auth:        AuthToken,
		Token:       "abc123",
		ContentType: "application/npygz",
		Accept:      "application/npygz",
	})
	if err != nil {
		t.Fatal(err)
	}
	status, resp, err := tr.Send(context.Background(), "POST", ts.URL+"/v1/cutout", []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated || string(resp) != "created" {
		t.Errorf("expected 201 created, got %d %q", status, resp)
	}
	if gotAuth != "Token abc123" {
		t.Errorf("bad authorization header %q", gotAuth)
	}
	if len(gotID) != 36 {
		t.Errorf("expected uuid request id, got %q", gotID)
	}
	if gotType != "application/npygz" || gotAccept != "application/npygz" {
		t.Errorf("bad content negotiation headers: %q / %q", gotType, gotAccept)
	}
	if gotBody != "payload" {
		t.Errorf("bad body received: %q", gotBody)
	}
}

func TestErrorStatusIsNotError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such channel", http.StatusNotFound)
	}))
	defer ts.Close()

	tr, err := NewHTTP(Config{})
	if err != nil {
		t.Fatal(err)
	}
	url := ts.URL + "/api/node/abc/grayscale/info"
	status, body, err := tr.Send(context.Background(), "GET", url, nil)
	if err != nil {
		t.Fatalf("completed request should not return error: %v", err)
	}
	err = CheckStatus("GET", url, status, body)
	if !errors.Is(err, ndio.ErrRemoteRequestFailed) {
		t.Fatalf("expected remote request failure, got %v", err)
	}
	var reqErr *ndio.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusNotFound {
		t.Errorf("expected 404 RequestError, got %v", err)
	}
	if CheckStatus("POST", url, http.StatusCreated, nil, http.StatusOK, http.StatusCreated) != nil {
		t.Errorf("expected 201 to be accepted when listed")
	}
}

func TestUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	tr, _ := NewHTTP(Config{})
	_, _, err := tr.Send(context.Background(), "GET", url, nil)
	if !errors.Is(err, ndio.ErrRemoteUnavailable) {
		t.Errorf("expected remote unavailable, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer ts.Close()

	tr, _ := NewHTTP(Config{Timeout: 20 * time.Millisecond})
	_, _, err := tr.Send(context.Background(), "GET", ts.URL, nil)
	if !errors.Is(err, ndio.ErrRemoteUnavailable) {
		t.Errorf("expected timeout to surface as remote unavailable, got %v", err)
	}

	tr, _ = NewHTTP(Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = tr.Send(ctx, "GET", ts.URL, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline to propagate, got %v", err)
	}
}

func TestBearer(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer ts.Close()

	valid, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	tr, err := NewHTTP(Config{Auth: AuthBearer, Token: valid})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := tr.Send(context.Background(), "GET", ts.URL, nil); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer "+valid {
		t.Errorf("bad bearer header %q", gotAuth)
	}

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if _, err := NewHTTP(Config{Auth: AuthBearer, Token: expired}); err == nil {
		t.Errorf("expected expired bearer token to be rejected")
	}
	if _, err := NewHTTP(Config{Auth: AuthBearer, Token: "opaque-token"}); err != nil {
		t.Errorf("opaque bearer token should be accepted: %v", err)
	}
}

func TestBadConfig(t *testing.T) {
	if _, err := NewHTTP(Config{Auth: AuthToken}); err == nil {
		t.Errorf("expected error for token auth without token")
	}
	if _, err := NewHTTP(Config{Auth: "kerberos"}); err == nil {
		t.Errorf("expected error for unknown auth scheme")
	}
	missing := filepath.Join(t.TempDir(), "missing.json")
	if _, err := NewHTTP(Config{Auth: AuthJWT, JWTFile: missing}); err == nil {
		t.Errorf("expected error for missing JWT file")
	}
}

func TestFunc(t *testing.T) {
	var tr Transport = Func(func(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
		return http.StatusTeapot, []byte(method + " " + url), nil
	})
	status, body, err := tr.Send(context.Background(), "GET", "http://x/y", nil)
	if err != nil || status != http.StatusTeapot || string(body) != "GET http://x/y" {
		t.Errorf("unexpected Func result %d %q %v", status, body, err)
	}
}

func TestConnectionPool(t *testing.T) {
	for _, c := range []Config{{}, {Auth: AuthToken, Token: "abc"}} {
		tr, err := NewHTTP(c)
		if err != nil {
			t.Fatal(err)
		}
		rt, ok := tr.client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("expected *http.Transport, got %T", tr.client.Transport)
		}
		if rt.MaxIdleConnsPerHost != MaxIdleConnsPerHost {
			t.Errorf("expected %d idle connections per host, got %d", MaxIdleConnsPerHost, rt.MaxIdleConnsPerHost)
		}
		if rt.TLSClientConfig == nil || len(rt.TLSClientConfig.NextProtos) == 0 || rt.TLSClientConfig.NextProtos[0] != "h2" {
			t.Errorf("expected HTTP/2 negotiation, got %+v", rt.TLSClientConfig)
		}
	}
}

func TestSendBadRequest(t *testing.T) {
	tr, err := NewHTTP(Config{})
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct{ method, url string }{
		{"GET", "http://bad\x7fhost/"},
		{"BAD METHOD", "http://localhost/"},
	} {
		_, _, err := tr.Send(context.Background(), tc.method, tc.url, nil)
		if !errors.Is(err, ndio.ErrRemoteUnavailable) {
			t.Errorf("%s %q: expected ErrRemoteUnavailable, got %v", tc.method, tc.url, err)
		}
	}
}
