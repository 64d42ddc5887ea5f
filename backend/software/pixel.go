package software

import (
	"fmt"

	"github.com/gogpu/sod/native"
)

// Luminance weights (Rec. 601), as used by the SOD engine.
const (
	lumR = 0.299
	lumG = 0.587
	lumB = 0.114
)

// GetPixel returns the value at (x, y, c).
// Out-of-range coordinates and unknown descriptors read as 0.
func (e *Engine) GetPixel(d native.Descriptor, x, y, c int) float32 {
	buf, err := e.buffer(d)
	if err != nil {
		e.log().Warn("software: get pixel", "err", err)
		return 0
	}
	i := d.Index(x, y, c)
	if i < 0 {
		return 0
	}
	return buf[i]
}

// SetPixel stores v at (x, y, c).
// Out-of-range coordinates and unknown descriptors are ignored.
func (e *Engine) SetPixel(d native.Descriptor, x, y, c int, v float32) {
	buf, err := e.buffer(d)
	if err != nil {
		e.log().Warn("software: set pixel", "err", err)
		return
	}
	if i := d.Index(x, y, c); i >= 0 {
		buf[i] = v
	}
}

// Crop returns the w×h region at (dx, dy). Source coordinates outside the
// image are clamped to the nearest edge pixel.
func (e *Engine) Crop(d native.Descriptor, dx, dy, w, h int) (native.Descriptor, error) {
	src, err := e.buffer(d)
	if err != nil {
		return native.Null, err
	}
	out, dst, err := e.newBuffer(w, h, d.Channels)
	if err != nil {
		return native.Null, err
	}

	c := d.Channels
	for y := 0; y < h; y++ {
		sy := clampInt(y+dy, 0, d.Height-1)
		for x := 0; x < w; x++ {
			sx := clampInt(x+dx, 0, d.Width-1)
			copy(dst[(y*w+x)*c:(y*w+x+1)*c], src[(sy*d.Width+sx)*c:])
		}
	}
	return out, nil
}

// ExtractLayer returns channel c of d as a single-channel image.
func (e *Engine) ExtractLayer(d native.Descriptor, c int) (native.Descriptor, error) {
	src, err := e.buffer(d)
	if err != nil {
		return native.Null, err
	}
	if c < 0 || c >= d.Channels {
		return native.Null, fmt.Errorf("%w: %d of %d", ErrChannelOutOfRange, c, d.Channels)
	}

	out, dst, err := e.newBuffer(d.Width, d.Height, 1)
	if err != nil {
		return native.Null, err
	}
	for i := range dst {
		dst[i] = src[i*d.Channels+c]
	}
	return out, nil
}

// Threshold returns an image of the same shape holding 1 where d > thresh
// and 0 elsewhere.
func (e *Engine) Threshold(d native.Descriptor, thresh float32) (native.Descriptor, error) {
	src, err := e.buffer(d)
	if err != nil {
		return native.Null, err
	}
	out, dst, err := e.newBuffer(d.Width, d.Height, d.Channels)
	if err != nil {
		return native.Null, err
	}
	for i, v := range src {
		if v > thresh {
			dst[i] = 1
		}
	}
	return out, nil
}

// Grayscale returns a single-channel luminance image.
// Images with fewer than three channels keep their first channel.
func (e *Engine) Grayscale(d native.Descriptor) (native.Descriptor, error) {
	src, err := e.buffer(d)
	if err != nil {
		return native.Null, err
	}
	out, dst, err := e.newBuffer(d.Width, d.Height, 1)
	if err != nil {
		return native.Null, err
	}
	luminance(src, dst, d.Channels)
	return out, nil
}

// luminance writes the per-pixel luminance of an interleaved buffer with c
// channels into dst (one element per pixel).
func luminance(src, dst []float32, c int) {
	if c < 3 {
		for i := range dst {
			dst[i] = src[i*c]
		}
		return
	}
	for i := range dst {
		p := src[i*c:]
		dst[i] = lumR*p[0] + lumG*p[1] + lumB*p[2]
	}
}
