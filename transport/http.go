package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang-jwt/jwt/v4"
	"github.com/twinj/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/janelia-flyem/ndio/ndio"
)

// AuthScheme selects how requests are authorized.
type AuthScheme string

const (
	// AuthNone sends no credentials.
	AuthNone AuthScheme = "none"

	// AuthToken sends "Authorization: Token <token>" as the Boss expects.
	AuthToken AuthScheme = "token"

	// AuthBearer sends an OAuth2 bearer token.
	AuthBearer AuthScheme = "bearer"

	// AuthJWT signs requests with a Google service account key file.
	AuthJWT AuthScheme = "jwt"
)

// RequestIDHeader carries a fresh id for every request so server logs can be matched.
const RequestIDHeader = "X-Request-Id"

// DefaultScopes are requested for service account credentials if none are configured.
var DefaultScopes = []string{"https://www.googleapis.com/auth/cloud-platform"}

// Config holds the settings for an HTTP transport.
type Config struct {
	Auth    AuthScheme
	Token   string
	JWTFile string
	Scopes  []string

	// Timeout bounds each request including reading the body.  Zero means no timeout.
	Timeout time.Duration

	// ContentType is sent with request bodies and Accept with every request, if set.
	ContentType string
	Accept      string
}

// MaxIdleConnsPerHost is sized for the concurrent sub-cube requests of one cutout.
const MaxIdleConnsPerHost = 32

// newRoundTripper returns a connection pool that keeps enough idle connections for
// concurrent requests to one host and negotiates HTTP/2 over TLS.
func newRoundTripper() (*http.Transport, error) {
	rt := http.DefaultTransport.(*http.Transport).Clone()
	rt.MaxIdleConnsPerHost = MaxIdleConnsPerHost
	if err := http2.ConfigureTransport(rt); err != nil {
		return nil, fmt.Errorf("unable to configure HTTP/2 transport: %v", err)
	}
	return rt, nil
}

// HTTP is a Transport over net/http.  It is safe for concurrent use.
type HTTP struct {
	client     *http.Client
	authHeader string
	config     Config
}

// NewHTTP returns an HTTP transport, establishing credentials for the configured scheme.
func NewHTTP(c Config) (*HTTP, error) {
	rt, err := newRoundTripper()
	if err != nil {
		return nil, err
	}
	base := &http.Client{Transport: rt}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	t := &HTTP{config: c}
	switch c.Auth {
	case "", AuthNone:
		t.client = base
	case AuthToken:
		if c.Token == "" {
			return nil, fmt.Errorf("token authorization requested without a token")
		}
		t.client = base
		t.authHeader = "Token " + c.Token
	case AuthBearer:
		if err := checkExpiration(c.Token); err != nil {
			return nil, err
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"})
		t.client = oauth2.NewClient(ctx, ts)
	case AuthJWT:
		jwtdata, err := os.ReadFile(c.JWTFile)
		if err != nil {
			return nil, fmt.Errorf("cannot load JSON Web Token file %q: %v", c.JWTFile, err)
		}
		scopes := c.Scopes
		if len(scopes) == 0 {
			scopes = DefaultScopes
		}
		conf, err := google.JWTConfigFromJSON(jwtdata, scopes...)
		if err != nil {
			return nil, fmt.Errorf("cannot establish JWT Config file from Google: %v", err)
		}
		t.client = conf.Client(ctx)
	default:
		return nil, fmt.Errorf("unknown authorization scheme %q", c.Auth)
	}
	t.client.Timeout = c.Timeout
	return t, nil
}

// checkExpiration rejects a bearer token that is a JWT whose "exp" claim has passed.
// Opaque tokens are accepted since their lifetime cannot be known locally.
func checkExpiration(token string) error {
	if token == "" {
		return fmt.Errorf("bearer authorization requested without a token")
	}
	if strings.Count(token, ".") != 2 {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil
	}
	if !claims.VerifyExpiresAt(time.Now().Unix(), false) {
		return fmt.Errorf("bearer token has expired")
	}
	return nil
}

// Send implements Transport.
func (t *HTTP) Send(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("bad request %s %s: %w: %w", method, url, ndio.ErrRemoteUnavailable, err)
	}
	reqID := uuid.NewV4().String()
	req.Header.Set(RequestIDHeader, reqID)
	if t.authHeader != "" {
		req.Header.Set("Authorization", t.authHeader)
	}
	if body != nil && t.config.ContentType != "" {
		req.Header.Set("Content-Type", t.config.ContentType)
	}
	if t.config.Accept != "" {
		req.Header.Set("Accept", t.config.Accept)
	}

	timedLog := ndio.NewTimeLog()
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w: %w", method, url, ndio.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response of %s %s: %w: %w", method, url, ndio.ErrRemoteUnavailable, err)
	}
	timedLog.Debugf("%s %s [%s] -> %d, sent %s, received %s", method, url, reqID, resp.StatusCode,
		humanize.Bytes(uint64(len(body))), humanize.Bytes(uint64(len(data))))
	return resp.StatusCode, data, nil
}
