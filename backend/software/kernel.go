package software

import (
	"math"
	"sync"
)

// GaussianKernel generates a normalized 1D Gaussian kernel of 2*radius+1 taps
// with the given standard deviation.
//
// For radius <= 0 or sigma <= 0, returns a single-element kernel [1.0] (identity).
func GaussianKernel(radius int, sigma float64) []float32 {
	if radius <= 0 || sigma <= 0 {
		return []float32{1.0}
	}

	size := radius*2 + 1
	kernel := make([]float32, size)

	// Gaussian formula: G(x) = exp(-x²/(2σ²)) / (σ√(2π))
	// The normalization constant is skipped since the sum is normalized to 1.
	twoSigmaSq := 2 * sigma * sigma
	sum := float64(0)

	for i := 0; i < size; i++ {
		x := float64(i - radius)
		val := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(val)
		sum += val
	}

	if sum > 0 {
		invSum := float32(1.0 / sum)
		for i := range kernel {
			kernel[i] *= invSum
		}
	}

	return kernel
}

// kernelKey identifies a cached kernel; sigma is quantized to 0.01.
type kernelKey struct {
	radius int
	sigma  int
}

// kernelCache caches computed Gaussian kernels to avoid recomputation.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[kernelKey][]float32
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

// newKernelCache creates a kernel cache with the given maximum entries.
func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[kernelKey][]float32),
		maxLen: maxLen,
	}
}

// get retrieves a kernel from cache or generates and caches it.
func (c *kernelCache) get(radius int, sigma float64) []float32 {
	key := kernelKey{radius: radius, sigma: int(math.Round(sigma * 100))}

	c.mu.RLock()
	if kernel, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return kernel
	}
	c.mu.RUnlock()

	kernel := GaussianKernel(radius, sigma)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Simple eviction: clear half the cache
		count := 0
		for k := range c.cache {
			delete(c.cache, k)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = kernel
	c.mu.Unlock()

	return kernel
}

// CachedGaussianKernel returns a cached Gaussian kernel.
// The returned slice is shared and must not be modified.
func CachedGaussianKernel(radius int, sigma float64) []float32 {
	return defaultKernelCache.get(radius, sigma)
}
