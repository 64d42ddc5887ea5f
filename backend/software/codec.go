package software

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	// Registers the WebP decoder with image.Decode.
	_ "golang.org/x/image/webp"

	"github.com/gogpu/sod/native"
)

// ErrUnsupportedFormat is returned when the file extension has no encoder.
var ErrUnsupportedFormat = errors.New("software: unsupported format")

// Decode loads an image file into a new float32 buffer with values in [0, 1].
//
// channels is a hint: 0 keeps the natural channel count (1 for grayscale
// files, 3 for opaque color, 4 otherwise); 1..4 forces gray, gray+alpha,
// RGB or RGBA. Files with the ".sodz" extension are read losslessly.
func (e *Engine) Decode(path string, channels int) (native.Descriptor, error) {
	if channels < 0 || channels > 4 {
		return native.Null, fmt.Errorf("%w: channel hint %d", ErrUnsupportedChannels, channels)
	}
	if strings.EqualFold(filepath.Ext(path), ExtRaw) {
		return e.decodeRaw(path, channels)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return native.Null, fmt.Errorf("software: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, format, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return native.Null, fmt.Errorf("software: decode: %w", err)
	}

	d, err := e.fromImage(img, channels)
	if err != nil {
		return native.Null, err
	}
	e.log().Debug("software: decoded", "path", path, "format", format, "desc", d.String())
	return d, nil
}

// Encode writes d to path. The format is chosen by extension:
// .png, .jpg/.jpeg, .gif, .bmp, .tif/.tiff or .sodz (lossless).
func (e *Engine) Encode(d native.Descriptor, path string) error {
	buf, err := e.buffer(d)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ExtRaw {
		return writeFile(path, func(w io.Writer) error {
			return encodeRaw(w, d, buf)
		})
	}

	img, err := toImage(d, buf)
	if err != nil {
		return err
	}

	var encode func(io.Writer) error
	switch ext {
	case ".png":
		encode = func(w io.Writer) error { return png.Encode(w, img) }
	case ".jpg", ".jpeg":
		encode = func(w io.Writer) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: e.jpegQuality})
		}
	case ".gif":
		encode = func(w io.Writer) error { return gif.Encode(w, img, nil) }
	case ".bmp":
		encode = func(w io.Writer) error { return bmp.Encode(w, img) }
	case ".tif", ".tiff":
		encode = func(w io.Writer) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := writeFile(path, encode); err != nil {
		return err
	}
	e.log().Debug("software: encoded", "path", path, "desc", d.String())
	return nil
}

// writeFile creates path and runs encode against a buffered writer.
func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("software: create file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := encode(w); err != nil {
		_ = f.Close()
		return fmt.Errorf("software: encode %s: %w", filepath.Ext(path), err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("software: write file: %w", err)
	}
	return f.Close()
}

// naturalChannels returns the channel count an image decodes to without a hint.
func naturalChannels(img image.Image) int {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return 1
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return 3
	}
	return 4
}

// fromImage converts a decoded image into a new engine buffer.
func (e *Engine) fromImage(img image.Image, channels int) (native.Descriptor, error) {
	if channels == 0 {
		channels = naturalChannels(img)
	}

	b := img.Bounds()
	rgba := toNRGBA(img)

	d, dst, err := e.newBuffer(b.Dx(), b.Dy(), channels)
	if err != nil {
		return native.Null, err
	}

	const inv = 1.0 / 255
	for i := 0; i < d.Width*d.Height; i++ {
		p := rgba.Pix[i*4 : i*4+4]
		r, g, bl, a := float32(p[0])*inv, float32(p[1])*inv, float32(p[2])*inv, float32(p[3])*inv
		o := dst[i*channels : (i+1)*channels]
		switch channels {
		case 1:
			o[0] = lumR*r + lumG*g + lumB*bl
		case 2:
			o[0], o[1] = lumR*r+lumG*g+lumB*bl, a
		case 3:
			o[0], o[1], o[2] = r, g, bl
		default:
			o[0], o[1], o[2], o[3] = r, g, bl, a
		}
	}
	return d, nil
}

// toNRGBA returns img as a tightly packed NRGBA image. Decoded NRGBA images
// are used as is: going through draw would premultiply and lose the color of
// transparent pixels.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// toImage quantizes a float32 buffer to an 8-bit standard library image.
func toImage(d native.Descriptor, buf []float32) (image.Image, error) {
	w, h, c := d.Width, d.Height, d.Channels
	rect := image.Rect(0, 0, w, h)

	if c == 1 {
		img := image.NewGray(rect)
		for i, v := range buf {
			img.Pix[i] = quantize(v)
		}
		return img, nil
	}
	if c > 4 {
		return nil, fmt.Errorf("%w: cannot encode %d channels", ErrUnsupportedChannels, c)
	}

	img := image.NewNRGBA(rect)
	for i := 0; i < w*h; i++ {
		p := buf[i*c : (i+1)*c]
		o := img.Pix[i*4 : i*4+4]
		switch c {
		case 2:
			g := quantize(p[0])
			o[0], o[1], o[2], o[3] = g, g, g, quantize(p[1])
		case 3:
			o[0], o[1], o[2], o[3] = quantize(p[0]), quantize(p[1]), quantize(p[2]), 255
		default:
			o[0], o[1], o[2], o[3] = quantize(p[0]), quantize(p[1]), quantize(p[2]), quantize(p[3])
		}
	}
	return img, nil
}

// quantize maps [0, 1] to [0, 255] with rounding.
func quantize(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
