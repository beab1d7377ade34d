/*
	Package codec serializes dense volumes to and from the request and response bodies
	understood by remote volume services.  Codecs are registered by name so a service can
	pick its wire format from configuration.
*/
package codec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/janelia-flyem/ndio/ndio"
)

// Spec describes the volume a response body is expected to hold.  A nil Shape
// accepts whatever shape the body declares, which only self-describing formats can do.
type Spec struct {
	Type  ndio.DataType
	Shape []int
}

// NumBytes returns the uncompressed size of a volume matching the spec.
func (s Spec) NumBytes() int {
	n := s.Type.Bytes()
	for _, d := range s.Shape {
		n *= d
	}
	return n
}

// Codec encodes a volume into a request body and decodes a response body into a volume.
// Decode(Encode(v)) must reproduce v exactly.
type Codec interface {
	// Name is the registry key, e.g., "npz" or "raw+lz4".
	Name() string

	// ContentType is the MIME type sent with encoded bodies.
	ContentType() string

	Encode(v *ndio.Volume) ([]byte, error)
	Decode(data []byte, want Spec) (*ndio.Volume, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Codec)
)

// Register makes a codec available by name, replacing any codec with the same name.
func Register(c Codec) {
	registryMu.Lock()
	registry[c.Name()] = c
	registryMu.Unlock()
}

// Get returns the registered codec with the given name.
func Get(name string) (Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, found := registry[name]
	if !found {
		return nil, fmt.Errorf("no codec registered with name %q", name)
	}
	return c, nil
}

// Names returns the sorted names of all registered codecs.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	for _, comp := range []Compression{Uncompressed, LZ4, Gzip, Snappy} {
		Register(Raw{Compression: comp})
	}
	Register(NPZ{})
	Register(NPYGzip{})
}

// decodeError marks err as a decode failure.
func decodeError(name string, err error) error {
	return fmt.Errorf("%s body: %v: %w", name, err, ndio.ErrDecodeFailed)
}

// checkDecoded verifies a decoded volume against what the caller asked for.
func checkDecoded(name string, v *ndio.Volume, want Spec) error {
	if v.Type != want.Type {
		return decodeError(name, fmt.Errorf("got %s samples, expected %s", v.Type, want.Type))
	}
	if want.Shape == nil {
		return nil
	}
	if len(v.Shape) != len(want.Shape) {
		return decodeError(name, fmt.Errorf("got shape %v, expected %v", v.Shape, want.Shape))
	}
	for i := range want.Shape {
		if v.Shape[i] != want.Shape[i] {
			return decodeError(name, fmt.Errorf("got shape %v, expected %v", v.Shape, want.Shape))
		}
	}
	return nil
}
