// Package native defines the boundary between sod and a pixel engine.
//
// An engine owns every pixel buffer. It hands out [Descriptor] values that
// record the shape and the address of a buffer, and it is the only party
// allowed to release that memory again ([Engine.Free]). The sod package wraps
// descriptors in single-owner handles; engines are plugged in through the
// backend registry.
//
// # Memory Layout
//
// Float32 buffers are interleaved row-major (height, width, channels):
//
//	index(y, x, c) = (y*Width + x)*Channels + c
//
// Pixel values are nominally in [0, 1].
package native
