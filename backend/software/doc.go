// Package software provides a pure Go pixel engine for sod.
//
// The engine implements [native.Engine] on top of Go-allocated float32
// buffers. It keeps a registry of every live buffer so that double frees and
// use-after-free become detectable errors instead of memory corruption, and
// it recycles freed buffers through a size-keyed [Pool]. With [WithWorkers]
// blur, resize and edge detection run in parallel row bands.
//
// Supported operations:
//   - Codecs: PNG, JPEG, GIF, BMP, TIFF, WebP (decode only) and the lossless
//     float32 container ".sodz" (zstd compressed)
//   - Gaussian blur (separable, explicit radius and sigma)
//   - Grayscale, thresholding, layer extraction
//   - Canny edge detection
//   - RGB/HSV conversion (in place)
//   - Crop and bilinear resize
//
// The engine registers itself as "software" in the backend registry:
//
//	import _ "github.com/gogpu/sod/backend/software"
package software
