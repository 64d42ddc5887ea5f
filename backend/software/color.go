package software

import (
	"fmt"
	"math"

	"github.com/gogpu/sod/native"
)

// RGBToHSV converts the first three channels of d in place to HSV.
// Hue is stored in [0, 1) (fraction of a full turn), saturation and value
// in [0, 1]. Extra channels (alpha) are left untouched.
func (e *Engine) RGBToHSV(d native.Descriptor) error {
	buf, err := e.colorBuffer(d)
	if err != nil {
		return err
	}

	c := d.Channels
	for i := 0; i < len(buf); i += c {
		buf[i], buf[i+1], buf[i+2] = rgbToHSV(buf[i], buf[i+1], buf[i+2])
	}
	return nil
}

// HSVToRGB converts the first three channels of d in place from HSV to RGB.
func (e *Engine) HSVToRGB(d native.Descriptor) error {
	buf, err := e.colorBuffer(d)
	if err != nil {
		return err
	}

	c := d.Channels
	for i := 0; i < len(buf); i += c {
		buf[i], buf[i+1], buf[i+2] = hsvToRGB(buf[i], buf[i+1], buf[i+2])
	}
	return nil
}

func (e *Engine) colorBuffer(d native.Descriptor) ([]float32, error) {
	buf, err := e.buffer(d)
	if err != nil {
		return nil, err
	}
	if d.Channels < 3 {
		return nil, fmt.Errorf("%w: color conversion needs 3 channels, have %d", ErrUnsupportedChannels, d.Channels)
	}
	return buf, nil
}

// rgbToHSV converts one RGB triple.
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	maxC := max(r, g, b)
	minC := min(r, g, b)
	delta := maxC - minC
	v = maxC

	if maxC == 0 {
		return 0, 0, v
	}
	s = delta / maxC
	if delta == 0 {
		return 0, s, v
	}

	switch maxC {
	case r:
		h = (g - b) / delta
	case g:
		h = 2 + (b-r)/delta
	default:
		h = 4 + (r-g)/delta
	}
	if h < 0 {
		h += 6
	}
	return h / 6, s, v
}

// hsvToRGB converts one HSV triple.
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	if s == 0 {
		return v, v, v
	}

	h6 := float64(h) * 6
	sector := math.Floor(h6)
	f := float32(h6 - sector)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch ((int(sector) % 6) + 6) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
