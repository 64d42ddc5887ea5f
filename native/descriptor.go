package native

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

var (
	// ErrShapeMismatch is returned when a backing slice does not match the
	// requested shape.
	ErrShapeMismatch = errors.New("native: data length does not match shape")

	// ErrInvalidShape is returned for non-positive dimensions or a shape
	// whose element count exceeds MaxElements.
	ErrInvalidShape = errors.New("native: invalid shape")
)

// MaxElements is the largest element count a descriptor may describe. It
// keeps both the element count and the byte size representable as int.
const MaxElements = math.MaxInt / 8

// Elements returns width*height*channels. ok is false when a dimension is
// not positive or the product exceeds MaxElements.
func Elements(width, height, channels int) (n int, ok bool) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return 0, false
	}
	if width > MaxElements/height {
		return 0, false
	}
	wh := width * height
	if wh > MaxElements/channels {
		return 0, false
	}
	return wh * channels, true
}

// Kind is the element type of a buffer.
type Kind uint8

const (
	// KindFloat32 is 32-bit float pixel data (the default for all transforms).
	KindFloat32 Kind = iota

	// KindByte is 8-bit storage used for encoded or alternate buffers.
	KindByte
)

// Size returns the size of one element in bytes.
func (k Kind) Size() int {
	switch k {
	case KindFloat32:
		return 4
	case KindByte:
		return 1
	default:
		return 0
	}
}

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFloat32:
		return "float32"
	case KindByte:
		return "byte"
	default:
		return "unknown"
	}
}

// Descriptor is the shape and memory location of one engine buffer.
//
// A Descriptor is a plain value: copying it does not copy pixels, and it
// carries no ownership by itself. Ownership is tracked by whoever holds it
// (sod.Image). Data is nil for the failure sentinel; a null descriptor is
// never dereferenced.
type Descriptor struct {
	Width    int
	Height   int
	Channels int
	Kind     Kind
	Data     unsafe.Pointer
}

// Null is the "no buffer" sentinel.
var Null Descriptor

// NewFloat32 wraps an engine-allocated float32 slice.
// Only engines should call this; the slice must stay owned by the engine
// until the descriptor is freed.
func NewFloat32(width, height, channels int, data []float32) (Descriptor, error) {
	n, ok := Elements(width, height, channels)
	if !ok {
		return Null, fmt.Errorf("%w: %dx%dx%d", ErrInvalidShape, width, height, channels)
	}
	if len(data) != n {
		return Null, ErrShapeMismatch
	}
	return Descriptor{
		Width:    width,
		Height:   height,
		Channels: channels,
		Kind:     KindFloat32,
		Data:     unsafe.Pointer(unsafe.SliceData(data)),
	}, nil
}

// NewBytes wraps an engine-allocated byte slice.
func NewBytes(width, height, channels int, data []byte) (Descriptor, error) {
	n, ok := Elements(width, height, channels)
	if !ok {
		return Null, fmt.Errorf("%w: %dx%dx%d", ErrInvalidShape, width, height, channels)
	}
	if len(data) != n {
		return Null, ErrShapeMismatch
	}
	return Descriptor{
		Width:    width,
		Height:   height,
		Channels: channels,
		Kind:     KindByte,
		Data:     unsafe.Pointer(unsafe.SliceData(data)),
	}, nil
}

// IsNull reports whether d is the failure sentinel.
func (d Descriptor) IsNull() bool {
	return d.Data == nil
}

// Len returns the number of elements (width * height * channels).
func (d Descriptor) Len() int {
	if d.IsNull() {
		return 0
	}
	return d.Width * d.Height * d.Channels
}

// ByteSize returns the size of the buffer in bytes.
func (d Descriptor) ByteSize() int {
	return d.Len() * d.Kind.Size()
}

// Index returns the element offset of (x, y, c), or -1 when out of range.
func (d Descriptor) Index(x, y, c int) int {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height || c < 0 || c >= d.Channels {
		return -1
	}
	return (y*d.Width+x)*d.Channels + c
}

// Float32s returns the buffer as a float32 slice addressing the engine's
// memory directly. Returns nil for null or non-float32 descriptors.
func (d Descriptor) Float32s() []float32 {
	if d.IsNull() || d.Kind != KindFloat32 {
		return nil
	}
	return unsafe.Slice((*float32)(d.Data), d.Len())
}

// Bytes returns the buffer as a byte slice. Returns nil for null or
// non-byte descriptors.
func (d Descriptor) Bytes() []byte {
	if d.IsNull() || d.Kind != KindByte {
		return nil
	}
	return unsafe.Slice((*byte)(d.Data), d.Len())
}

// SameBuffer reports whether both descriptors address the same memory.
func (d Descriptor) SameBuffer(o Descriptor) bool {
	return !d.IsNull() && d.Data == o.Data
}

// String returns a short description like "640x480x3 float32".
func (d Descriptor) String() string {
	if d.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%dx%dx%d %s", d.Width, d.Height, d.Channels, d.Kind)
}
