package sod

import "github.com/gogpu/sod/native"

// Option configures image construction (Load, Allocate, Constant).
//
// Example:
//
//	// Default engine from the backend registry
//	img, err := sod.Allocate(640, 480, 3)
//
//	// Explicit engine (dependency injection)
//	eng := software.New(software.WithPoolSize(16))
//	img, err := sod.Allocate(640, 480, 3, sod.WithEngine(eng))
type Option func(*options)

// options holds optional configuration for image construction.
type options struct {
	engine native.Engine
}

// WithEngine sets the engine that allocates and owns the image's buffers.
// Derived images (copies, transforms, regions) inherit it.
func WithEngine(e native.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// newOptions applies opts over the defaults.
func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = DefaultEngine()
	}
	return o
}

// OpOption configures a transform.
type OpOption func(*opOptions)

// opOptions holds optional configuration for transforms.
type opOptions struct {
	inPlace bool
}

// InPlace makes a transform replace the receiver's buffer instead of
// returning a new image. The old buffer is released and every View of the
// receiver is invalidated. The receiver itself is returned.
func InPlace() OpOption {
	return WithInPlace(true)
}

// WithInPlace is InPlace with an explicit flag, for callers that decide at
// runtime.
func WithInPlace(inPlace bool) OpOption {
	return func(o *opOptions) {
		o.inPlace = inPlace
	}
}

func newOpOptions(opts []OpOption) opOptions {
	var o opOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
