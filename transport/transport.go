/*
	Package transport sends cutout and metadata requests to remote volume services.

	A Transport only reports connection-level failures as errors.  A completed request
	returns its status and body whatever the status, and callers decide which statuses
	are acceptable using CheckStatus.
*/
package transport

import (
	"context"
	"net/http"

	"github.com/janelia-flyem/ndio/ndio"
)

// Transport sends one request and returns the response status and body.  A non-nil
// error wraps ndio.ErrRemoteUnavailable and means no response was received.
type Transport interface {
	Send(ctx context.Context, method, url string, body []byte) (status int, resp []byte, err error)
}

// Func adapts an ordinary function to a Transport.
type Func func(ctx context.Context, method, url string, body []byte) (int, []byte, error)

func (f Func) Send(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	return f(ctx, method, url, body)
}

// CheckStatus returns a *ndio.RequestError if status is not one of the expected
// statuses.  With no expected statuses given, only 200 OK is accepted.
func CheckStatus(method, url string, status int, body []byte, expected ...int) error {
	if len(expected) == 0 {
		expected = []int{http.StatusOK}
	}
	for _, ok := range expected {
		if status == ok {
			return nil
		}
	}
	return ndio.NewRequestError(method, url, status, body)
}
