package software

import (
	"errors"
	"testing"
)

func TestRGBToHSVKnownValues(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float32
		h, s, v float32
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 1, 1, 1, 0, 0, 1},
		{"red", 1, 0, 0, 0, 1, 1},
		{"green", 0, 1, 0, 1.0 / 3, 1, 1},
		{"blue", 0, 0, 1, 2.0 / 3, 1, 1},
		{"magenta", 1, 0, 1, 5.0 / 6, 1, 1},
		{"gray", 0.5, 0.5, 0.5, 0, 0, 0.5},
		{"slate", 0.2, 0.4, 0.6, 7.0 / 12, 2.0 / 3, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
			if !approxEqual(h, tt.h, 1e-6) || !approxEqual(s, tt.s, 1e-6) || !approxEqual(v, tt.v, 1e-6) {
				t.Errorf("rgbToHSV(%v,%v,%v) = (%v,%v,%v), want (%v,%v,%v)",
					tt.r, tt.g, tt.b, h, s, v, tt.h, tt.s, tt.v)
			}
		})
	}
}

func TestHSVRoundTrip(t *testing.T) {
	for r := float32(0); r <= 1; r += 0.25 {
		for g := float32(0); g <= 1; g += 0.25 {
			for b := float32(0); b <= 1; b += 0.25 {
				h, s, v := rgbToHSV(r, g, b)
				r2, g2, b2 := hsvToRGB(h, s, v)
				if !approxEqual(r, r2, 1e-5) || !approxEqual(g, g2, 1e-5) || !approxEqual(b, b2, 1e-5) {
					t.Errorf("round trip (%v,%v,%v) -> (%v,%v,%v)", r, g, b, r2, g2, b2)
				}
			}
		}
	}
}

func TestHSVHueWraps(t *testing.T) {
	for _, h := range []float32{0.1, 0.3, 0.45, 0.7, 0.95} {
		r, g, b := hsvToRGB(h, 0.8, 0.9)
		for _, shifted := range []float32{h - 1, h + 1, h - 2} {
			r2, g2, b2 := hsvToRGB(shifted, 0.8, 0.9)
			if !approxEqual(r, r2, 1e-5) || !approxEqual(g, g2, 1e-5) || !approxEqual(b, b2, 1e-5) {
				t.Errorf("hsvToRGB(%v) = (%v,%v,%v), want (%v,%v,%v) as for hue %v",
					shifted, r2, g2, b2, r, g, b, h)
			}
		}
	}

	r, g, b := hsvToRGB(-1.0/6, 1, 1)
	if !approxEqual(r, 1, 1e-5) || !approxEqual(g, 0, 1e-5) || !approxEqual(b, 1, 1e-5) {
		t.Errorf("hsvToRGB(-1/6) = (%v,%v,%v), want magenta", r, g, b)
	}
}

func TestHSVZeroSaturationIsGray(t *testing.T) {
	r, g, b := hsvToRGB(7.0/12, 0, 0.6)
	if r != 0.6 || g != 0.6 || b != 0.6 {
		t.Errorf("hsvToRGB(s=0) = (%v,%v,%v), want all 0.6", r, g, b)
	}
}

func TestColorConversionInPlace(t *testing.T) {
	e := New()
	d := newFilled(t, e, 2, 2, 4, constant(1, 0, 0, 0.5))
	mustFree(t, e, d)

	if err := e.RGBToHSV(d); err != nil {
		t.Fatalf("RGBToHSV() error = %v", err)
	}
	if got := e.GetPixel(d, 1, 1, 1); got != 1 {
		t.Errorf("saturation = %v, want 1", got)
	}
	if got := e.GetPixel(d, 1, 1, 3); got != 0.5 {
		t.Errorf("alpha changed to %v", got)
	}

	if err := e.HSVToRGB(d); err != nil {
		t.Fatalf("HSVToRGB() error = %v", err)
	}
	if got := e.GetPixel(d, 0, 0, 0); !approxEqual(got, 1, 1e-6) {
		t.Errorf("red = %v after round trip", got)
	}
}

func TestColorConversionNeedsThreeChannels(t *testing.T) {
	e := New()
	d, _ := e.Allocate(2, 2, 1)
	defer e.Free(d)

	if err := e.RGBToHSV(d); !errors.Is(err, ErrUnsupportedChannels) {
		t.Errorf("RGBToHSV(gray) error = %v, want ErrUnsupportedChannels", err)
	}
	if err := e.HSVToRGB(d); !errors.Is(err, ErrUnsupportedChannels) {
		t.Errorf("HSVToRGB(gray) error = %v, want ErrUnsupportedChannels", err)
	}
}
