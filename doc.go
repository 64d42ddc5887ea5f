// Package sod provides owned image handles over a pixel engine.
//
// # Overview
//
// A pixel engine allocates and frees float32 image buffers and runs pixel
// algorithms on them (blur, grayscale, edge detection, color conversion,
// codecs). sod wraps each buffer in an [Image] that releases it exactly
// once, lets callers read and write pixels in place through a [View], and
// selects sub-regions with explicit [Region] values.
//
// # Quick Start
//
//	import "github.com/gogpu/sod"
//
//	img, err := sod.Load("photo.png", 3)
//	if err != nil {
//	    return err
//	}
//	defer img.Close()
//
//	// New image
//	blurred, err := img.Blur(5, 1.9)
//	if err != nil {
//	    return err
//	}
//	defer blurred.Close()
//
//	// Same image, buffer replaced
//	if _, err := img.Desaturate(0, sod.InPlace()); err != nil {
//	    return err
//	}
//
//	// img[100:200, 100:200]
//	tile, err := img.Select(sod.Spatial{Rows: sod.Span(100, 200), Cols: sod.Span(100, 200)})
//
// # Ownership
//
// Every Image owns one engine buffer. Close releases it; later calls are
// no-ops and other methods return [ErrReleased]. Transforms return a new
// Image unless called with [InPlace], in which case the old buffer is
// released after the engine succeeds and the receiver is returned. A failed
// transform never changes the receiver. Images dropped without Close are
// reclaimed by the garbage collector with a warning in the log.
//
// # Views
//
// A [View] indexes the buffer as (row, col, channel) without copying.
// In-place transforms and Close invalidate every view of the image; using an
// invalidated view panics with [ErrViewInvalidated].
//
// # Engines
//
// The engine comes from [WithEngine], [SetEngine] or, by default, the
// backend registry (see package backend). The pure Go engine in
// backend/software is always registered.
package sod
