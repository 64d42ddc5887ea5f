package sod

import "errors"

// Error categories. Every error returned by this package wraps exactly one
// of them; use errors.Is to classify. Engine errors stay in the chain.
var (
	// ErrValidation is returned for bad arguments (shape, value count,
	// ranges). It is always raised before any engine call.
	ErrValidation = errors.New("sod: invalid argument")

	// ErrIO is returned when the engine fails: decode/encode errors or a
	// transform that produced no buffer. The image is left unchanged.
	ErrIO = errors.New("sod: engine failure")

	// ErrIndex is returned for malformed or unsupported regions and
	// out-of-range pixel coordinates.
	ErrIndex = errors.New("sod: invalid index")

	// ErrReleased is returned when an image is used after Close.
	ErrReleased = errors.New("sod: image released")

	// ErrViewInvalidated is the panic value for access through a view whose
	// image has been modified in place or released.
	ErrViewInvalidated = errors.New("sod: view invalidated")
)
