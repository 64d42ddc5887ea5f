package native

// Engine is the pixel engine facade.
//
// Every method that produces a buffer returns a fresh descriptor owned by the
// caller, who must eventually pass it to Free exactly once. Engines backed by
// a C ABI may signal failure with a Null descriptor instead of an error;
// callers must treat both the same way. None of the methods take ownership of
// their input descriptors.
//
// Implementations must be safe for concurrent use by multiple goroutines on
// distinct descriptors.
type Engine interface {
	// Name returns the engine identifier (e.g., "software").
	Name() string

	// Allocate returns a zeroed float32 buffer of the given shape.
	Allocate(width, height, channels int) (Descriptor, error)

	// Free releases a buffer. Freeing the Null descriptor is a no-op.
	Free(d Descriptor)

	// Copy returns an independent copy of d.
	Copy(d Descriptor) (Descriptor, error)

	// Decode loads an image file. channels is a hint: 0 keeps the file's
	// natural channel count, 1..4 forces it.
	Decode(path string, channels int) (Descriptor, error)

	// Encode writes d to path. The format is chosen by the engine.
	Encode(d Descriptor, path string) error

	// GetPixel returns the value at column x, row y, channel c.
	GetPixel(d Descriptor, x, y, c int) float32

	// SetPixel stores v at column x, row y, channel c.
	SetPixel(d Descriptor, x, y, c int, v float32)

	// Crop returns the w×h region whose top-left corner is (dx, dy).
	Crop(d Descriptor, dx, dy, w, h int) (Descriptor, error)

	// RGBToHSV converts d in place to HSV (hue, saturation, value).
	RGBToHSV(d Descriptor) error

	// HSVToRGB converts d in place back to RGB.
	HSVToRGB(d Descriptor) error

	// Grayscale returns a single-channel luminance image.
	Grayscale(d Descriptor) (Descriptor, error)

	// Blur returns d convolved with a Gaussian kernel of the given radius
	// (in pixels) and standard deviation.
	Blur(d Descriptor, radius int, sigma float64) (Descriptor, error)

	// ExtractLayer returns channel c of d as a single-channel image.
	ExtractLayer(d Descriptor, c int) (Descriptor, error)

	// Threshold returns an image with 1 where d > thresh and 0 elsewhere.
	Threshold(d Descriptor, thresh float32) (Descriptor, error)

	// EdgeDetect returns a single-channel edge map.
	EdgeDetect(d Descriptor, reduceNoise bool) (Descriptor, error)

	// Resize returns d resampled to width×height.
	Resize(d Descriptor, width, height int) (Descriptor, error)
}
