package ndio

import (
	"errors"
	"fmt"
)

// Error kinds shared by the cutout, transport and codec layers.  Test with errors.Is.
var (
	// ErrRemoteUnavailable is returned when a request could not complete at the
	// connection level.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrRemoteRequestFailed is returned when the remote answered with an unexpected status.
	ErrRemoteRequestFailed = errors.New("remote request failed")

	// ErrDecodeFailed is returned when a response body could not be parsed into a volume.
	ErrDecodeFailed = errors.New("decode failed")

	// ErrShapeMismatch is returned when a supplied volume does not match the requested box.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidRange is returned when a requested range has start after stop or
	// lies outside what the remote channel can serve.
	ErrInvalidRange = errors.New("invalid range")
)

// MaxErrorBody is the maximum number of response body bytes kept in a RequestError.
const MaxErrorBody = 2000

// RequestError describes a completed request that returned a non-success status.
type RequestError struct {
	Method string
	URL    string
	Status int
	Body   []byte
}

// NewRequestError returns a RequestError, keeping at most MaxErrorBody bytes of body.
func NewRequestError(method, url string, status int, body []byte) *RequestError {
	if len(body) > MaxErrorBody {
		body = body[:MaxErrorBody]
	}
	return &RequestError{
		Method: method,
		URL:    url,
		Status: status,
		Body:   body,
	}
}

func (e *RequestError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("bad status on %s %s: %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("bad status on %s %s: (%d) %s", e.Method, e.URL, e.Status, string(e.Body))
}

func (e *RequestError) Unwrap() error {
	return ErrRemoteRequestFailed
}
