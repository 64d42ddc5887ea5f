package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/sod/native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested engine is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Engine name constants.
const (
	// BackendSoftware is the name of the pure Go CPU engine.
	BackendSoftware = "software"
	// BackendNative is the name reserved for a cgo binding to the C engine.
	BackendNative = "native"
)

// Open returns a new engine by name, or the default engine when name is empty.
func Open(name string) (native.Engine, error) {
	var e native.Engine
	if name == "" {
		e = Default()
	} else {
		e = Get(name)
	}
	if e == nil {
		if name == "" {
			return nil, ErrBackendNotAvailable
		}
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return e, nil
}
