package software

import (
	"math"

	"github.com/gogpu/sod/native"
)

// Resize returns d resampled to width×height with bilinear interpolation.
// Pixel centers are aligned; samples outside the source are clamped to the edge.
func (e *Engine) Resize(d native.Descriptor, width, height int) (native.Descriptor, error) {
	src, err := e.buffer(d)
	if err != nil {
		return native.Null, err
	}
	if width == d.Width && height == d.Height {
		return e.Copy(d)
	}

	out, dst, err := e.newBuffer(width, height, d.Channels)
	if err != nil {
		return native.Null, err
	}

	c := d.Channels
	sx := float64(d.Width) / float64(width)
	sy := float64(d.Height) / float64(height)

	e.workers.Rows(height, minBandRows, func(lo, hi int) {
		resampleRows(src, dst, d.Width, d.Height, width, c, sx, sy, lo, hi)
	})
	return out, nil
}

// resampleRows fills output rows [lo, hi) of a width-wide image.
func resampleRows(src, dst []float32, srcW, srcH, width, c int, sx, sy float64, lo, hi int) {
	for y := lo; y < hi; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		y0 := int(math.Floor(fy))
		ty := float32(fy - float64(y0))
		y1 := clampInt(y0+1, 0, srcH-1)
		y0 = clampInt(y0, 0, srcH-1)

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			x0 := int(math.Floor(fx))
			tx := float32(fx - float64(x0))
			x1 := clampInt(x0+1, 0, srcW-1)
			x0 = clampInt(x0, 0, srcW-1)

			i00 := (y0*srcW + x0) * c
			i10 := (y0*srcW + x1) * c
			i01 := (y1*srcW + x0) * c
			i11 := (y1*srcW + x1) * c
			o := (y*width + x) * c

			for ch := 0; ch < c; ch++ {
				top := src[i00+ch] + (src[i10+ch]-src[i00+ch])*tx
				bottom := src[i01+ch] + (src[i11+ch]-src[i01+ch])*tx
				dst[o+ch] = top + (bottom-top)*ty
			}
		}
	}
}
