package software

import (
	"math"

	"github.com/gogpu/sod/native"
)

// Canny parameters.
const (
	// noiseRadius and noiseSigma define the 5x5 Gaussian used for noise reduction.
	noiseRadius = 2
	noiseSigma  = 1.4

	// highRatio is the strong-edge threshold as a fraction of the peak gradient.
	highRatio = 0.2
	// lowRatio is the weak-edge threshold as a fraction of the strong threshold.
	lowRatio = 0.5
)

// EdgeDetect returns a single-channel binary edge map (Canny).
//
// The input is reduced to luminance, optionally smoothed with a 5x5 Gaussian,
// differentiated with Sobel operators, thinned by non-maximum suppression and
// finally linked with hysteresis thresholding. Edge pixels are 1, others 0.
func (e *Engine) EdgeDetect(d native.Descriptor, reduceNoise bool) (native.Descriptor, error) {
	src, err := e.buffer(d)
	if err != nil {
		return native.Null, err
	}

	w, h := d.Width, d.Height
	gray := make([]float32, w*h)
	luminance(src, gray, d.Channels)

	if reduceNoise {
		smooth := make([]float32, len(gray))
		convolve(e.workers, gray, smooth, w, h, 1, CachedGaussianKernel(noiseRadius, noiseSigma))
		gray = smooth
	}

	mag, dir := sobel(gray, w, h)
	thin := suppressNonMax(mag, dir, w, h)

	out, dst, err := e.newBuffer(w, h, 1)
	if err != nil {
		return native.Null, err
	}
	hysteresis(thin, dst, w, h)
	return out, nil
}

// sobel returns the gradient magnitude and a quantized direction per pixel.
// Directions: 0 = horizontal gradient, 1 = 45°, 2 = vertical, 3 = 135°.
func sobel(gray []float32, w, h int) ([]float32, []uint8) {
	mag := make([]float32, w*h)
	dir := make([]uint8, w*h)

	at := func(x, y int) float32 {
		return gray[clampInt(y, 0, h-1)*w+clampInt(x, 0, w-1)]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)

			i := y*w + x
			mag[i] = float32(math.Hypot(float64(gx), float64(gy)))

			angle := math.Atan2(float64(gy), float64(gx)) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			switch {
			case angle < 22.5 || angle >= 157.5:
				dir[i] = 0
			case angle < 67.5:
				dir[i] = 1
			case angle < 112.5:
				dir[i] = 2
			default:
				dir[i] = 3
			}
		}
	}
	return mag, dir
}

// suppressNonMax keeps only pixels that are local maxima along their gradient.
func suppressNonMax(mag []float32, dir []uint8, w, h int) []float32 {
	out := make([]float32, len(mag))
	get := func(x, y int) float32 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			var a, b float32
			switch dir[i] {
			case 0:
				a, b = get(x-1, y), get(x+1, y)
			case 1:
				a, b = get(x+1, y+1), get(x-1, y-1)
			case 2:
				a, b = get(x, y-1), get(x, y+1)
			default:
				a, b = get(x-1, y+1), get(x+1, y-1)
			}
			if m >= a && m >= b {
				out[i] = m
			}
		}
	}
	return out
}

// hysteresis marks strong edges and every weak edge connected to one.
func hysteresis(mag, dst []float32, w, h int) {
	var peak float32
	for _, m := range mag {
		peak = max(peak, m)
	}
	if peak == 0 {
		return
	}

	high := peak * highRatio
	low := high * lowRatio

	stack := make([]int, 0, 64)
	for i, m := range mag {
		if m >= high && dst[i] == 0 {
			dst[i] = 1
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := max(y-1, 0); ny <= min(y+1, h-1); ny++ {
			for nx := max(x-1, 0); nx <= min(x+1, w-1); nx++ {
				j := ny*w + nx
				if dst[j] == 0 && mag[j] >= low {
					dst[j] = 1
					stack = append(stack, j)
				}
			}
		}
	}
}
