package software

import (
	"fmt"
	"math"

	"github.com/gogpu/sod/internal/parallel"
	"github.com/gogpu/sod/native"
)

// minBandRows is the smallest row band handed to a worker.
const minBandRows = 16

// Blur returns d convolved with a Gaussian kernel of 2*radius+1 taps.
// Radius 0 yields a plain copy. Edges are extended by clamping.
func (e *Engine) Blur(d native.Descriptor, radius int, sigma float64) (native.Descriptor, error) {
	if radius < 0 {
		return native.Null, fmt.Errorf("%w: blur radius %d", ErrInvalidArgument, radius)
	}
	if radius > 0 && (sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0)) {
		return native.Null, fmt.Errorf("%w: blur sigma %v", ErrInvalidArgument, sigma)
	}

	src, err := e.buffer(d)
	if err != nil {
		return native.Null, err
	}
	if radius == 0 {
		return e.Copy(d)
	}

	out, dst, err := e.newBuffer(d.Width, d.Height, d.Channels)
	if err != nil {
		return native.Null, err
	}

	convolve(e.workers, src, dst, d.Width, d.Height, d.Channels, CachedGaussianKernel(radius, sigma))
	return out, nil
}

// convolve applies a separable kernel to an interleaved w×h×c buffer.
// The operation uses two passes:
//  1. Horizontal pass: convolve each row with the 1D kernel (src -> temp)
//  2. Vertical pass: convolve each column with the 1D kernel (temp -> dst)
//
// Each pass runs in row bands on p; a nil p runs serially.
// src and dst may not overlap.
func convolve(p *parallel.WorkerPool, src, dst []float32, w, h, c int, kernel []float32) {
	temp := make([]float32, len(src))
	p.Rows(h, minBandRows, func(y0, y1 int) {
		blurHorizontal(src, temp, w, c, y0, y1, kernel)
	})
	p.Rows(h, minBandRows, func(y0, y1 int) {
		blurVertical(temp, dst, w, h, c, y0, y1, kernel)
	})
}

// blurHorizontal convolves rows [y0, y1) with edge clamping.
func blurHorizontal(src, dst []float32, w, c, y0, y1 int, kernel []float32) {
	half := len(kernel) / 2

	for y := y0; y < y1; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				var sum float32
				for k, weight := range kernel {
					kx := clampInt(x+k-half, 0, w-1)
					sum += src[(row+kx)*c+ch] * weight
				}
				dst[(row+x)*c+ch] = sum
			}
		}
	}
}

// blurVertical computes output rows [y0, y1) of the column convolution
// with edge clamping. It reads every row of src.
func blurVertical(src, dst []float32, w, h, c, y0, y1 int, kernel []float32) {
	half := len(kernel) / 2

	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				var sum float32
				for k, weight := range kernel {
					ky := clampInt(y+k-half, 0, h-1)
					sum += src[(ky*w+x)*c+ch] * weight
				}
				dst[(y*w+x)*c+ch] = sum
			}
		}
	}
}

// clampInt clamps v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clamp01 clamps v to [0, 1].
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
