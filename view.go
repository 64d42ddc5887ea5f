package sod

import "fmt"

// View is a zero-copy window over an image's float32 buffer, indexed as
// (row, col, channel).
//
// A view is only valid while its image keeps the buffer it was created
// over. Any in-place transform or Close invalidates it, after which every
// access panics with ErrViewInvalidated. Slices returned by Data and Pixel
// are not checked and must not be retained past the view's lifetime.
type View struct {
	img   *Image
	gen   uint64
	data  []float32
	rows  int
	cols  int
	chans int
}

// View returns a view over the image's current buffer.
func (img *Image) View() (*View, error) {
	d, err := img.current("view")
	if err != nil {
		return nil, err
	}
	data := d.Float32s()
	if data == nil {
		return nil, fmt.Errorf("%w: view: %s buffer is not float32", ErrValidation, d.Kind)
	}
	return &View{
		img:   img,
		gen:   img.o.gen,
		data:  data,
		rows:  d.Height,
		cols:  d.Width,
		chans: d.Channels,
	}, nil
}

// WithView calls fn with a view that is invalidated when fn returns.
func (img *Image) WithView(fn func(v *View) error) error {
	v, err := img.View()
	if err != nil {
		return err
	}
	defer v.detach()
	return fn(v)
}

func (v *View) detach() {
	v.img = nil
	v.data = nil
}

// Valid reports whether the view still addresses its image's buffer.
func (v *View) Valid() bool {
	return v != nil && v.img != nil && v.img.o.gen == v.gen && !v.img.o.desc.IsNull()
}

func (v *View) check() {
	if !v.Valid() {
		panic(ErrViewInvalidated)
	}
}

func (v *View) index(row, col, ch int) int {
	v.check()
	if row < 0 || row >= v.rows || col < 0 || col >= v.cols || ch < 0 || ch >= v.chans {
		panic(fmt.Sprintf("sod: view index (%d, %d, %d) out of range (%d, %d, %d)",
			row, col, ch, v.rows, v.cols, v.chans))
	}
	return (row*v.cols+col)*v.chans + ch
}

// Shape returns (rows, cols, channels).
func (v *View) Shape() (rows, cols, chans int) {
	return v.rows, v.cols, v.chans
}

// At returns the value at (row, col, ch).
func (v *View) At(row, col, ch int) float32 {
	return v.data[v.index(row, col, ch)]
}

// Set stores val at (row, col, ch). The write goes straight to engine
// memory.
func (v *View) Set(row, col, ch int, val float32) {
	v.data[v.index(row, col, ch)] = val
}

// Pixel returns the channel values of one pixel as a sub-slice of the
// buffer.
func (v *View) Pixel(row, col int) []float32 {
	i := v.index(row, col, 0)
	return v.data[i : i+v.chans : i+v.chans]
}

// Data returns the whole buffer in row-major interleaved order.
func (v *View) Data() []float32 {
	v.check()
	return v.data
}
