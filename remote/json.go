package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/janelia-flyem/ndio/ndio"
	"github.com/janelia-flyem/ndio/transport"
)

// getJSON fetches url, validates the response against schema if one is given, and
// unmarshals it into v.
func getJSON(ctx context.Context, tr transport.Transport, url string, schema *jsonschema.Schema, v interface{}) error {
	status, body, err := tr.Send(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if err := transport.CheckStatus(http.MethodGet, url, status, body); err != nil {
		return err
	}
	if schema != nil {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var doc interface{}
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("metadata from %s is not JSON: %v: %w", url, err, ndio.ErrDecodeFailed)
		}
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("unexpected metadata from %s: %v: %w", url, err, ndio.ErrDecodeFailed)
		}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("cannot parse metadata from %s: %v: %w", url, err, ndio.ErrDecodeFailed)
	}
	return nil
}

func point3dFromInts(vals []int32) (ndio.Point3d, error) {
	if len(vals) != 3 {
		return ndio.Point3d{}, fmt.Errorf("expected 3 coordinates, got %v", vals)
	}
	return ndio.Point3d{vals[0], vals[1], vals[2]}, nil
}
