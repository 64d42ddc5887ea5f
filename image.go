package sod

import (
	"fmt"
	"math"
	"runtime"

	"github.com/gogpu/sod/native"
)

// Image is the owned handle to one engine buffer.
//
// An Image is created by Load, Allocate, Constant or by a transform, and must
// be released with Close. Released images keep their shape accessors working
// (they report zeros) but every other method fails with ErrReleased.
//
// Image is not safe for concurrent use. Callers that share an image across
// goroutines must serialize access themselves.
type Image struct {
	o *owner
}

// owner holds the mutable state of an Image. It is a separate allocation so
// the GC cleanup can reach it without keeping the Image reachable.
type owner struct {
	eng  native.Engine
	desc native.Descriptor
	gen  uint64
}

// release frees the current buffer once and installs the Null sentinel.
func (o *owner) release() {
	if o.desc.IsNull() {
		return
	}
	d := o.desc
	o.desc = native.Null
	o.gen++
	o.eng.Free(d)
}

// replace releases the current buffer and installs d. The handle holds the
// sentinel between the two steps.
func (o *owner) replace(d native.Descriptor) {
	o.release()
	o.desc = d
	o.gen++
}

// reclaim is the GC safety net for images dropped without Close.
func (o *owner) reclaim() {
	if o.desc.IsNull() {
		return
	}
	Logger().Warn("sod: image garbage collected without Close",
		"engine", o.eng.Name(), "desc", o.desc.String())
	o.release()
}

// wrap takes ownership of d, which must be a fresh buffer from eng.
func wrap(eng native.Engine, d native.Descriptor) *Image {
	o := &owner{eng: eng, desc: d}
	img := &Image{o: o}
	runtime.AddCleanup(img, func(o *owner) { o.reclaim() }, o)
	return img
}

// Load decodes the image at path. channels forces the channel count (1..4);
// 0 keeps the file's natural count.
func Load(path string, channels int, opts ...Option) (*Image, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: load: empty path", ErrValidation)
	}
	if channels < 0 || channels > 4 {
		return nil, fmt.Errorf("%w: load: channels %d not in [0, 4]", ErrValidation, channels)
	}
	eng := newOptions(opts).engine
	d, err := eng.Decode(path, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: load failed: %s: %w", ErrIO, path, err)
	}
	if d.IsNull() {
		return nil, fmt.Errorf("%w: load failed: %s", ErrIO, path)
	}
	Logger().Debug("sod: loaded", "path", path, "desc", d.String())
	return wrap(eng, d), nil
}

// Allocate returns a zero-filled width×height×channels image.
func Allocate(width, height, channels int, opts ...Option) (*Image, error) {
	if err := validateShape("allocate", width, height, channels); err != nil {
		return nil, err
	}
	return allocate(newOptions(opts).engine, width, height, channels)
}

// Constant returns an image whose every pixel holds values, one value per
// channel. All arguments are validated before anything is allocated.
func Constant(width, height, channels int, values []float32, opts ...Option) (*Image, error) {
	if err := validateShape("constant", width, height, channels); err != nil {
		return nil, err
	}
	if len(values) != channels {
		return nil, fmt.Errorf("%w: constant: %d values for %d channels",
			ErrValidation, len(values), channels)
	}
	for i, v := range values {
		if !finite(float64(v)) {
			return nil, fmt.Errorf("%w: constant: value %d is %v", ErrValidation, i, v)
		}
	}

	eng := newOptions(opts).engine
	img, err := allocate(eng, width, height, channels)
	if err != nil {
		return nil, err
	}
	d := img.o.desc
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c, v := range values {
				eng.SetPixel(d, x, y, c, v)
			}
		}
	}
	return img, nil
}

func allocate(eng native.Engine, width, height, channels int) (*Image, error) {
	d, err := eng.Allocate(width, height, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate %dx%dx%d: %w", ErrIO, width, height, channels, err)
	}
	if d.IsNull() {
		return nil, fmt.Errorf("%w: allocate %dx%dx%d: engine returned no buffer",
			ErrIO, width, height, channels)
	}
	return wrap(eng, d), nil
}

func validateShape(op string, width, height, channels int) error {
	if _, ok := native.Elements(width, height, channels); !ok {
		return fmt.Errorf("%w: %s: shape %dx%dx%d must be positive with at most %d elements",
			ErrValidation, op, width, height, channels, native.MaxElements)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// current returns the live descriptor or ErrReleased.
func (img *Image) current(op string) (native.Descriptor, error) {
	if img == nil || img.o == nil || img.o.desc.IsNull() {
		return native.Null, fmt.Errorf("%w: %s", ErrReleased, op)
	}
	return img.o.desc, nil
}

// checkResult classifies the outcome of an engine call that should have
// produced a fresh buffer from src.
func checkResult(op string, src, out native.Descriptor, err error) error {
	switch {
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
	case out.IsNull():
		return fmt.Errorf("%w: %s: engine returned no buffer", ErrIO, op)
	case out.SameBuffer(src):
		return fmt.Errorf("%w: %s: engine returned the source buffer", ErrIO, op)
	}
	return nil
}

// Copy returns an independent image with the same pixels.
func (img *Image) Copy() (*Image, error) {
	src, err := img.current("copy")
	if err != nil {
		return nil, err
	}
	out, err := img.o.eng.Copy(src)
	runtime.KeepAlive(img)
	if err := checkResult("copy", src, out, err); err != nil {
		return nil, err
	}
	return wrap(img.o.eng, out), nil
}

// Save encodes the image to path. The engine picks the format from the
// file extension.
func (img *Image) Save(path string) error {
	d, err := img.current("save")
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: save: empty path", ErrValidation)
	}
	err = img.o.eng.Encode(d, path)
	runtime.KeepAlive(img)
	if err != nil {
		return fmt.Errorf("%w: save failed: %s: %w", ErrIO, path, err)
	}
	return nil
}

// Crop returns the w×h region whose top-left corner is (dx, dy). The region
// must lie inside the image.
func (img *Image) Crop(dx, dy, w, h int) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: crop: size %dx%d must be positive", ErrIndex, w, h)
	}
	return img.Select(Spatial{Rows: Span(dy, dy+h), Cols: Span(dx, dx+w)})
}

// Close releases the image's buffer. It is safe to call more than once.
func (img *Image) Close() error {
	if img == nil || img.o == nil {
		return nil
	}
	img.o.release()
	return nil
}

// Released reports whether Close has been called.
func (img *Image) Released() bool {
	return img == nil || img.o == nil || img.o.desc.IsNull()
}

// Width returns the image width in pixels, or 0 once released.
func (img *Image) Width() int {
	if img.Released() {
		return 0
	}
	return img.o.desc.Width
}

// Height returns the image height in pixels, or 0 once released.
func (img *Image) Height() int {
	if img.Released() {
		return 0
	}
	return img.o.desc.Height
}

// Channels returns the number of channels, or 0 once released.
func (img *Image) Channels() int {
	if img.Released() {
		return 0
	}
	return img.o.desc.Channels
}

// Shape returns (height, width, channels), the order used by View.
func (img *Image) Shape() (rows, cols, chans int) {
	return img.Height(), img.Width(), img.Channels()
}

// Kind returns the element kind of the buffer.
func (img *Image) Kind() native.Kind {
	if img.Released() {
		return native.KindFloat32
	}
	return img.o.desc.Kind
}

// Engine returns the engine that owns the image's buffers.
func (img *Image) Engine() native.Engine {
	if img == nil || img.o == nil {
		return nil
	}
	return img.o.eng
}

// Descriptor returns the current descriptor. It is borrowed: the image
// still owns the buffer, and the descriptor goes stale on Close or on an
// in-place transform.
func (img *Image) Descriptor() native.Descriptor {
	if img.Released() {
		return native.Null
	}
	return img.o.desc
}

// Pixel returns the value at column x, row y, channel c.
func (img *Image) Pixel(x, y, c int) (float32, error) {
	d, err := img.current("pixel")
	if err != nil {
		return 0, err
	}
	if d.Index(x, y, c) < 0 {
		return 0, fmt.Errorf("%w: pixel (%d, %d, %d) outside %s", ErrIndex, x, y, c, d)
	}
	v := img.o.eng.GetPixel(d, x, y, c)
	runtime.KeepAlive(img)
	return v, nil
}

// SetPixel stores v at column x, row y, channel c.
func (img *Image) SetPixel(x, y, c int, v float32) error {
	d, err := img.current("set pixel")
	if err != nil {
		return err
	}
	if d.Index(x, y, c) < 0 {
		return fmt.Errorf("%w: set pixel (%d, %d, %d) outside %s", ErrIndex, x, y, c, d)
	}
	img.o.eng.SetPixel(d, x, y, c, v)
	runtime.KeepAlive(img)
	return nil
}

// String implements fmt.Stringer.
func (img *Image) String() string {
	if img.Released() {
		return "sod.Image(released)"
	}
	return fmt.Sprintf("sod.Image(%s, %s)", img.o.desc, img.o.eng.Name())
}
