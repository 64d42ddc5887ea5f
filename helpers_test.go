package sod

import (
	"errors"
	"testing"

	"github.com/gogpu/sod/backend/software"
	"github.com/gogpu/sod/native"
)

var errInjected = errors.New("injected engine failure")

// testEngine wraps the software engine with per-operation failure
// injection. Buffers stay accounted in the wrapped engine's Stats.
type testEngine struct {
	*software.Engine

	fail  map[string]bool // return errInjected
	null  map[string]bool // return Null with a nil error
	same  map[string]bool // return the source descriptor
	calls map[string]int
}

// newTestEngine returns an engine that fails the test if any buffer is
// still live when the test ends.
func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	e := &testEngine{
		Engine: software.New(software.WithPoolSize(-1)),
		fail:   map[string]bool{},
		null:   map[string]bool{},
		same:   map[string]bool{},
		calls:  map[string]int{},
	}
	t.Cleanup(func() {
		if s := e.Stats(); s.Live != 0 {
			t.Errorf("leaked %d buffers (%d allocs, %d frees)", s.Live, s.Allocs, s.Frees)
		}
	})
	return e
}

// produce applies the injection for op around a buffer-producing call.
func (e *testEngine) produce(op string, src native.Descriptor, call func() (native.Descriptor, error)) (native.Descriptor, error) {
	e.calls[op]++
	switch {
	case e.fail[op]:
		return native.Null, errInjected
	case e.null[op]:
		return native.Null, nil
	case e.same[op]:
		return src, nil
	}
	return call()
}

func (e *testEngine) mutate(op string, call func() error) error {
	e.calls[op]++
	if e.fail[op] {
		return errInjected
	}
	return call()
}

func (e *testEngine) Allocate(w, h, c int) (native.Descriptor, error) {
	return e.produce("allocate", native.Null, func() (native.Descriptor, error) { return e.Engine.Allocate(w, h, c) })
}

func (e *testEngine) Copy(d native.Descriptor) (native.Descriptor, error) {
	return e.produce("copy", d, func() (native.Descriptor, error) { return e.Engine.Copy(d) })
}

func (e *testEngine) Decode(path string, channels int) (native.Descriptor, error) {
	return e.produce("decode", native.Null, func() (native.Descriptor, error) { return e.Engine.Decode(path, channels) })
}

func (e *testEngine) Encode(d native.Descriptor, path string) error {
	return e.mutate("encode", func() error { return e.Engine.Encode(d, path) })
}

func (e *testEngine) Crop(d native.Descriptor, dx, dy, w, h int) (native.Descriptor, error) {
	return e.produce("crop", d, func() (native.Descriptor, error) { return e.Engine.Crop(d, dx, dy, w, h) })
}

func (e *testEngine) Blur(d native.Descriptor, radius int, sigma float64) (native.Descriptor, error) {
	return e.produce("blur", d, func() (native.Descriptor, error) { return e.Engine.Blur(d, radius, sigma) })
}

func (e *testEngine) Grayscale(d native.Descriptor) (native.Descriptor, error) {
	return e.produce("grayscale", d, func() (native.Descriptor, error) { return e.Engine.Grayscale(d) })
}

func (e *testEngine) ExtractLayer(d native.Descriptor, c int) (native.Descriptor, error) {
	return e.produce("extract", d, func() (native.Descriptor, error) { return e.Engine.ExtractLayer(d, c) })
}

func (e *testEngine) Threshold(d native.Descriptor, t float32) (native.Descriptor, error) {
	return e.produce("threshold", d, func() (native.Descriptor, error) { return e.Engine.Threshold(d, t) })
}

func (e *testEngine) Resize(d native.Descriptor, w, h int) (native.Descriptor, error) {
	return e.produce("resize", d, func() (native.Descriptor, error) { return e.Engine.Resize(d, w, h) })
}

func (e *testEngine) RGBToHSV(d native.Descriptor) error {
	return e.mutate("rgb2hsv", func() error { return e.Engine.RGBToHSV(d) })
}

func (e *testEngine) HSVToRGB(d native.Descriptor) error {
	return e.mutate("hsv2rgb", func() error { return e.Engine.HSVToRGB(d) })
}

// mustConstant creates a constant image closed at test cleanup.
func mustConstant(t *testing.T, e native.Engine, w, h int, values ...float32) *Image {
	t.Helper()
	img, err := Constant(w, h, len(values), values, WithEngine(e))
	if err != nil {
		t.Fatalf("Constant() error = %v", err)
	}
	mustClose(t, img)
	return img
}

// mustGradient creates a w×h×c image whose values depend on position.
func mustGradient(t *testing.T, e native.Engine, w, h, c int) *Image {
	t.Helper()
	img, err := Allocate(w, h, c, WithEngine(e))
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	mustClose(t, img)
	err = img.WithView(func(v *View) error {
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				for ch := 0; ch < c; ch++ {
					v.Set(row, col, ch, float32((row*31+col*7+ch*3)%256)/255)
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithView() error = %v", err)
	}
	return img
}

func mustClose(t *testing.T, img *Image) {
	t.Helper()
	t.Cleanup(func() {
		if err := img.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
}

// snapshot copies the image's pixels.
func snapshot(t *testing.T, img *Image) []float32 {
	t.Helper()
	var out []float32
	err := img.WithView(func(v *View) error {
		out = append([]float32(nil), v.Data()...)
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return out
}

func approxEqual(a, b, tolerance float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
