package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: ReadBytes not supported by map provider, use Read() instead")

// mapProvider is a koanf provider over an in-memory map. Keys may be
// nested maps or dotted paths.
type mapProvider map[string]any

// ReadBytes is not supported; koanf uses Read.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the map with dotted keys expanded.
func (m mapProvider) Read() (map[string]any, error) {
	cp := maps.Copy(m)
	return maps.Unflatten(cp, "."), nil
}
