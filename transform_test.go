package sod

import (
	"errors"
	"math"
	"testing"
)

// transformCase runs one transform on img.
type transformCase struct {
	name string
	run  func(img *Image, opts ...OpOption) (*Image, error)
}

var transforms = []transformCase{
	{"Blur", func(img *Image, opts ...OpOption) (*Image, error) { return img.Blur(2, 1.0, opts...) }},
	{"Grayscale", func(img *Image, opts ...OpOption) (*Image, error) { return img.Grayscale(opts...) }},
	{"EdgeDetect", func(img *Image, opts ...OpOption) (*Image, error) { return img.EdgeDetect(true, opts...) }},
	{"Threshold", func(img *Image, opts ...OpOption) (*Image, error) { return img.Threshold(0.5, opts...) }},
	{"ThresholdChannel", func(img *Image, opts ...OpOption) (*Image, error) { return img.ThresholdChannel(1, 0.4, opts...) }},
	{"ToHSV", func(img *Image, opts ...OpOption) (*Image, error) { return img.ToHSV(opts...) }},
	{"ToRGB", func(img *Image, opts ...OpOption) (*Image, error) { return img.ToRGB(opts...) }},
	{"Desaturate", func(img *Image, opts ...OpOption) (*Image, error) { return img.Desaturate(0.3, opts...) }},
	{"Resize", func(img *Image, opts ...OpOption) (*Image, error) { return img.Resize(5, 7, opts...) }},
}

func TestInPlaceMatchesOutOfPlace(t *testing.T) {
	for _, tt := range transforms {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			a := mustGradient(t, e, 12, 9, 3)
			b := mustGradient(t, e, 12, 9, 3)

			out, err := tt.run(a)
			if err != nil {
				t.Fatalf("out of place: %v", err)
			}
			mustClose(t, out)
			if out == a {
				t.Fatal("out of place returned the receiver")
			}

			before := e.Stats()
			got, err := tt.run(b, InPlace())
			if err != nil {
				t.Fatalf("in place: %v", err)
			}
			if got != b {
				t.Fatal("in place must return the receiver")
			}
			after := e.Stats()
			if after.Live != before.Live {
				t.Errorf("in place changed the live buffer count: %d -> %d", before.Live, after.Live)
			}
			if after.Allocs-before.Allocs != after.Frees-before.Frees {
				t.Errorf("in place allocs %d != frees %d",
					after.Allocs-before.Allocs, after.Frees-before.Frees)
			}

			r1, c1, ch1 := out.Shape()
			r2, c2, ch2 := b.Shape()
			if r1 != r2 || c1 != c2 || ch1 != ch2 {
				t.Fatalf("shapes differ: (%d, %d, %d) vs (%d, %d, %d)", r1, c1, ch1, r2, c2, ch2)
			}
			want := snapshot(t, out)
			for i, v := range snapshot(t, b) {
				if v != want[i] {
					t.Fatalf("element %d: in place %v, out of place %v", i, v, want[i])
				}
			}
		})
	}
}

func TestOutOfPlaceKeepsSource(t *testing.T) {
	for _, tt := range transforms {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			src := mustGradient(t, e, 6, 5, 3)
			want := snapshot(t, src)

			out, err := tt.run(src)
			if err != nil {
				t.Fatal(err)
			}
			mustClose(t, out)

			for i, v := range snapshot(t, src) {
				if v != want[i] {
					t.Fatalf("source element %d changed: %v -> %v", i, want[i], v)
				}
			}
		})
	}
}

func TestTransformEngineFailure(t *testing.T) {
	modes := []struct {
		name   string
		inject func(e *testEngine, op string)
	}{
		{"error", func(e *testEngine, op string) { e.fail[op] = true }},
		{"null", func(e *testEngine, op string) { e.null[op] = true }},
		{"aliased", func(e *testEngine, op string) { e.same[op] = true }},
	}
	ops := []struct {
		name   string
		engine string
		run    func(img *Image) (*Image, error)
	}{
		{"Blur", "blur", func(img *Image) (*Image, error) { return img.Blur(1, 1, InPlace()) }},
		{"Grayscale", "grayscale", func(img *Image) (*Image, error) { return img.Grayscale(InPlace()) }},
		{"Resize", "resize", func(img *Image) (*Image, error) { return img.Resize(2, 2, InPlace()) }},
		{"ThresholdChannel/extract", "extract", func(img *Image) (*Image, error) { return img.ThresholdChannel(0, 0.5, InPlace()) }},
		{"ThresholdChannel/threshold", "threshold", func(img *Image) (*Image, error) { return img.ThresholdChannel(0, 0.5, InPlace()) }},
		{"ToHSV/copy", "copy", func(img *Image) (*Image, error) { return img.ToHSV(InPlace()) }},
	}

	for _, mode := range modes {
		for _, op := range ops {
			t.Run(mode.name+"/"+op.name, func(t *testing.T) {
				e := newTestEngine(t)
				img := mustGradient(t, e, 4, 4, 3)
				want := snapshot(t, img)
				v, err := img.View()
				if err != nil {
					t.Fatal(err)
				}

				mode.inject(e, op.engine)
				got, err := op.run(img)
				if !errors.Is(err, ErrIO) {
					t.Fatalf("error = %v, want ErrIO", err)
				}
				if got != nil {
					t.Error("failed transform returned an image")
				}
				if !v.Valid() {
					t.Error("failed in-place transform invalidated views")
				}
				for i, x := range snapshot(t, img) {
					if x != want[i] {
						t.Fatalf("element %d changed: %v -> %v", i, want[i], x)
					}
				}
			})
		}
	}
}

func TestHSVMutationFailureKeepsSource(t *testing.T) {
	for _, op := range []string{"rgb2hsv", "hsv2rgb"} {
		t.Run(op, func(t *testing.T) {
			e := newTestEngine(t)
			img := mustConstant(t, e, 3, 3, 0.2, 0.4, 0.6)
			want := snapshot(t, img)

			e.fail[op] = true
			if _, err := img.Desaturate(0.5, InPlace()); !errors.Is(err, ErrIO) || !errors.Is(err, errInjected) {
				t.Fatalf("error = %v, want ErrIO wrapping the engine error", err)
			}
			for i, x := range snapshot(t, img) {
				if x != want[i] {
					t.Fatalf("element %d changed: %v -> %v", i, want[i], x)
				}
			}
		})
	}
}

func TestInPlaceInvalidatesViews(t *testing.T) {
	e := newTestEngine(t)
	img := mustConstant(t, e, 4, 4, 0.5, 0.5, 0.5)
	v, err := img.View()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := img.Blur(1, 1, InPlace()); err != nil {
		t.Fatal(err)
	}
	if v.Valid() {
		t.Fatal("view still valid after in-place blur")
	}
	defer func() {
		if r := recover(); r != ErrViewInvalidated {
			t.Errorf("recover() = %v, want ErrViewInvalidated", r)
		}
	}()
	_ = v.At(0, 0, 0)
}

func TestDesaturateZeroIsGray(t *testing.T) {
	e := newTestEngine(t)
	img := mustConstant(t, e, 8, 8, 0.2, 0.4, 0.6)

	gray, err := img.Desaturate(0)
	if err != nil {
		t.Fatalf("Desaturate() error = %v", err)
	}
	mustClose(t, gray)

	err = gray.WithView(func(v *View) error {
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				px := v.Pixel(row, col)
				if !approxEqual(px[0], px[1], 1e-6) || !approxEqual(px[1], px[2], 1e-6) {
					t.Fatalf("pixel (%d, %d) = %v, want R == G == B", row, col, px)
				}
				// Value (max component) is preserved.
				if !approxEqual(px[0], 0.6, 1e-6) {
					t.Fatalf("pixel (%d, %d) = %v, want 0.6", row, col, px)
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDesaturateOneIsIdentity(t *testing.T) {
	e := newTestEngine(t)
	img := mustConstant(t, e, 2, 2, 0.2, 0.4, 0.6)
	out, err := img.Desaturate(1)
	if err != nil {
		t.Fatal(err)
	}
	mustClose(t, out)
	want := []float32{0.2, 0.4, 0.6}
	for c, w := range want {
		if got, _ := out.Pixel(1, 1, c); !approxEqual(got, w, 1e-5) {
			t.Errorf("channel %d = %v, want %v", c, got, w)
		}
	}
}

func TestTransformValidation(t *testing.T) {
	e := newTestEngine(t)
	rgb := mustConstant(t, e, 4, 4, 0.1, 0.2, 0.3)
	gray := mustConstant(t, e, 4, 4, 0.5)

	tests := []struct {
		name string
		run  func() (*Image, error)
	}{
		{"blur negative radius", func() (*Image, error) { return rgb.Blur(-1, 1) }},
		{"blur zero sigma", func() (*Image, error) { return rgb.Blur(2, 0) }},
		{"blur nan sigma", func() (*Image, error) { return rgb.Blur(2, math.NaN()) }},
		{"threshold nan", func() (*Image, error) { return rgb.Threshold(float32(math.NaN())) }},
		{"threshold channel high", func() (*Image, error) { return rgb.ThresholdChannel(3, 0.5) }},
		{"threshold channel negative", func() (*Image, error) { return rgb.ThresholdChannel(-1, 0.5) }},
		{"desaturate ratio high", func() (*Image, error) { return rgb.Desaturate(1.5) }},
		{"desaturate ratio negative", func() (*Image, error) { return rgb.Desaturate(-0.1) }},
		{"desaturate ratio nan", func() (*Image, error) { return rgb.Desaturate(math.NaN()) }},
		{"desaturate gray", func() (*Image, error) { return gray.Desaturate(0.5) }},
		{"hsv gray", func() (*Image, error) { return gray.ToHSV() }},
		{"rgb gray", func() (*Image, error) { return gray.ToRGB() }},
		{"resize zero", func() (*Image, error) { return rgb.Resize(0, 4) }},
		{"resize overflow", func() (*Image, error) { return rgb.Resize(1<<62, 4) }},
	}

	before := e.Stats()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.run(); !errors.Is(err, ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
	if after := e.Stats(); after.Allocs != before.Allocs {
		t.Errorf("validation failures allocated %d buffers", after.Allocs-before.Allocs)
	}
}

func TestThresholdChannel(t *testing.T) {
	e := newTestEngine(t)
	img := mustGradient(t, e, 6, 4, 3)

	before := e.Stats()
	out, err := img.ThresholdChannel(2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	mustClose(t, out)
	if after := e.Stats(); after.Live != before.Live+1 {
		t.Errorf("live buffers %d -> %d, intermediate layer leaked", before.Live, after.Live)
	}
	if out.Channels() != 1 {
		t.Fatalf("Channels() = %d, want 1", out.Channels())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			src, _ := img.Pixel(x, y, 2)
			got, _ := out.Pixel(x, y, 0)
			want := float32(0)
			if src > 0.5 {
				want = 1
			}
			if got != want {
				t.Errorf("(%d, %d) = %v, want %v (source %v)", x, y, got, want, src)
			}
		}
	}

	// In place the handle itself becomes single channel.
	if _, err := img.ThresholdChannel(0, 0.5, InPlace()); err != nil {
		t.Fatal(err)
	}
	if img.Channels() != 1 {
		t.Errorf("in-place Channels() = %d, want 1", img.Channels())
	}
}

func TestHSVRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	img := mustGradient(t, e, 7, 5, 3)
	want := snapshot(t, img)

	if _, err := img.ToHSV(InPlace()); err != nil {
		t.Fatal(err)
	}
	if _, err := img.ToRGB(InPlace()); err != nil {
		t.Fatal(err)
	}
	for i, v := range snapshot(t, img) {
		if !approxEqual(v, want[i], 1e-5) {
			t.Fatalf("element %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestBlurZeroRadiusCopies(t *testing.T) {
	e := newTestEngine(t)
	img := mustGradient(t, e, 5, 5, 2)
	out, err := img.Blur(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	mustClose(t, out)
	want := snapshot(t, img)
	for i, v := range snapshot(t, out) {
		if v != want[i] {
			t.Fatalf("element %d = %v, want %v", i, v, want[i])
		}
	}
}
