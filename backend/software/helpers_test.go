package software

import (
	"testing"

	"github.com/gogpu/sod/native"
)

// Test helper functions shared across engine tests.

// newFilled allocates a w×h×c buffer and fills it with fn(x, y, c).
func newFilled(t *testing.T, e *Engine, w, h, c int, fn func(x, y, ch int) float32) native.Descriptor {
	t.Helper()
	d, err := e.Allocate(w, h, c)
	if err != nil {
		t.Fatalf("Allocate(%d, %d, %d) error = %v", w, h, c, err)
	}
	buf := d.Float32s()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				buf[d.Index(x, y, ch)] = fn(x, y, ch)
			}
		}
	}
	return d
}

// constant returns a fill function with a fixed value per channel.
func constant(values ...float32) func(x, y, ch int) float32 {
	return func(_, _, ch int) float32 { return values[ch] }
}

// approxEqual compares two floats with tolerance.
func approxEqual(a, b, tolerance float32) bool {
	return absf32(a-b) <= tolerance
}

// absf32 returns the absolute value of a float32.
func absf32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// mustFree frees d at test cleanup.
func mustFree(t *testing.T, e *Engine, d native.Descriptor) {
	t.Helper()
	t.Cleanup(func() { e.Free(d) })
}
