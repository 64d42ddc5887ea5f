package sod

import (
	"fmt"
	"runtime"

	"github.com/gogpu/sod/native"
)

// engineFunc produces a fresh buffer from src. It must free any
// intermediate buffer it allocates, including on failure.
type engineFunc func(eng native.Engine, src native.Descriptor) (native.Descriptor, error)

// apply runs fn on the current buffer and either wraps the result in a new
// image or installs it in place. On failure the receiver is untouched.
func (img *Image) apply(op string, opts []OpOption, fn engineFunc) (*Image, error) {
	cfg := newOpOptions(opts)
	src, err := img.current(op)
	if err != nil {
		return nil, err
	}
	out, err := fn(img.o.eng, src)
	runtime.KeepAlive(img)
	if err := checkResult(op, src, out, err); err != nil {
		return nil, err
	}
	if !cfg.inPlace {
		return wrap(img.o.eng, out), nil
	}
	Logger().Debug("sod: in-place swap", "op", op, "old", src.String(), "new", out.String())
	img.o.replace(out)
	return img, nil
}

// Blur applies a Gaussian blur with the given radius in pixels and standard
// deviation. A zero radius yields an unchanged copy.
func (img *Image) Blur(radius int, sigma float64, opts ...OpOption) (*Image, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: blur: negative radius %d", ErrValidation, radius)
	}
	if radius > 0 && (!finite(sigma) || sigma <= 0) {
		return nil, fmt.Errorf("%w: blur: sigma %v must be positive", ErrValidation, sigma)
	}
	return img.apply("blur", opts, func(eng native.Engine, src native.Descriptor) (native.Descriptor, error) {
		return eng.Blur(src, radius, sigma)
	})
}

// Grayscale returns the single-channel luminance of the image.
func (img *Image) Grayscale(opts ...OpOption) (*Image, error) {
	return img.apply("grayscale", opts, func(eng native.Engine, src native.Descriptor) (native.Descriptor, error) {
		return eng.Grayscale(src)
	})
}

// EdgeDetect returns a single-channel binary edge map. reduceNoise blurs
// the luminance before the gradient pass.
func (img *Image) EdgeDetect(reduceNoise bool, opts ...OpOption) (*Image, error) {
	return img.apply("edge detect", opts, func(eng native.Engine, src native.Descriptor) (native.Descriptor, error) {
		return eng.EdgeDetect(src, reduceNoise)
	})
}

// Threshold sets every value above thresh to 1 and every other value to 0.
func (img *Image) Threshold(thresh float32, opts ...OpOption) (*Image, error) {
	if !finite(float64(thresh)) {
		return nil, fmt.Errorf("%w: threshold: %v", ErrValidation, thresh)
	}
	return img.apply("threshold", opts, func(eng native.Engine, src native.Descriptor) (native.Descriptor, error) {
		return eng.Threshold(src, thresh)
	})
}

// ThresholdChannel thresholds a single channel. The result always has one
// channel, also when applied in place.
func (img *Image) ThresholdChannel(channel int, thresh float32, opts ...OpOption) (*Image, error) {
	if !finite(float64(thresh)) {
		return nil, fmt.Errorf("%w: threshold channel: %v", ErrValidation, thresh)
	}
	if c := img.Channels(); channel < 0 || (c > 0 && channel >= c) {
		return nil, fmt.Errorf("%w: threshold channel: channel %d not in [0, %d)",
			ErrValidation, channel, c)
	}
	return img.apply("threshold channel", opts, func(eng native.Engine, src native.Descriptor) (native.Descriptor, error) {
		layer, err := eng.ExtractLayer(src, channel)
		if err := checkResult("extract layer", src, layer, err); err != nil {
			return native.Null, err
		}
		defer eng.Free(layer)

		out, err := eng.Threshold(layer, thresh)
		if err := checkResult("threshold", layer, out, err); err != nil {
			return native.Null, err
		}
		return out, nil
	})
}

// ToHSV converts RGB to HSV, all components in [0, 1]. The image must have
// at least 3 channels; extra channels are kept.
func (img *Image) ToHSV(opts ...OpOption) (*Image, error) {
	if err := requireColor("to hsv", img); err != nil {
		return nil, err
	}
	return img.apply("to hsv", opts, onCopy(func(eng native.Engine, d native.Descriptor) error {
		return eng.RGBToHSV(d)
	}))
}

// ToRGB converts HSV back to RGB.
func (img *Image) ToRGB(opts ...OpOption) (*Image, error) {
	if err := requireColor("to rgb", img); err != nil {
		return nil, err
	}
	return img.apply("to rgb", opts, onCopy(func(eng native.Engine, d native.Descriptor) error {
		return eng.HSVToRGB(d)
	}))
}

// Desaturate scales the saturation of every pixel by ratio, in [0, 1].
// Zero yields a gray image with R == G == B.
func (img *Image) Desaturate(ratio float64, opts ...OpOption) (*Image, error) {
	if !finite(ratio) || ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("%w: desaturate: ratio %v not in [0, 1]", ErrValidation, ratio)
	}
	if err := requireColor("desaturate", img); err != nil {
		return nil, err
	}
	r := float32(ratio)
	return img.apply("desaturate", opts, onCopy(func(eng native.Engine, d native.Descriptor) error {
		if err := eng.RGBToHSV(d); err != nil {
			return err
		}
		for y := 0; y < d.Height; y++ {
			for x := 0; x < d.Width; x++ {
				eng.SetPixel(d, x, y, 1, eng.GetPixel(d, x, y, 1)*r)
			}
		}
		return eng.HSVToRGB(d)
	}))
}

// Resize resamples the image to width×height.
func (img *Image) Resize(width, height int, opts ...OpOption) (*Image, error) {
	if err := validateShape("resize", width, height, max(img.Channels(), 1)); err != nil {
		return nil, err
	}
	return img.apply("resize", opts, func(eng native.Engine, src native.Descriptor) (native.Descriptor, error) {
		return eng.Resize(src, width, height)
	})
}

// onCopy adapts an engine operation that mutates its buffer into an
// engineFunc working on a private copy.
func onCopy(mutate func(eng native.Engine, d native.Descriptor) error) engineFunc {
	return func(eng native.Engine, src native.Descriptor) (native.Descriptor, error) {
		cp, err := eng.Copy(src)
		if err := checkResult("copy", src, cp, err); err != nil {
			return native.Null, err
		}
		if err := mutate(eng, cp); err != nil {
			eng.Free(cp)
			return native.Null, err
		}
		return cp, nil
	}
}

func requireColor(op string, img *Image) error {
	if img.Released() {
		return fmt.Errorf("%w: %s", ErrReleased, op)
	}
	if c := img.Channels(); c < 3 {
		return fmt.Errorf("%w: %s: needs at least 3 channels, image has %d", ErrValidation, op, c)
	}
	return nil
}
