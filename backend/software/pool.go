package software

import "sync"

// Pool is a thread-safe pool for reusing float32 pixel buffers.
//
// Pool groups buffers by element count, so images of different shapes but
// equal volume (e.g. 20x10x3 and 10x20x3) share a bucket. This reduces GC
// pressure for pipelines that repeatedly allocate and free same-sized images.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[int][][]float32
	maxSize int // max buffers per bucket; 0 = unlimited, <0 = disabled
}

// NewPool creates a new buffer pool with the given maximum buffers per bucket.
// A maxPerBucket of 0 means unlimited (use with caution); a negative value
// disables pooling entirely.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[int][][]float32),
		maxSize: maxPerBucket,
	}
}

// Get returns a zeroed buffer of exactly n elements, reusing a pooled one
// when available.
func (p *Pool) Get(n int) []float32 {
	p.mu.Lock()
	bucket := p.buckets[n]
	if len(bucket) > 0 {
		// Pop from pool
		buf := bucket[len(bucket)-1]
		bucket[len(bucket)-1] = nil
		p.buckets[n] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		clear(buf)
		return buf
	}
	p.mu.Unlock()

	return make([]float32, n)
}

// Put returns a buffer to the pool for reuse.
// If buf is empty, pooling is disabled, or the bucket is at max capacity,
// the buffer is dropped for the GC.
func (p *Pool) Put(buf []float32) {
	if len(buf) == 0 || p.maxSize < 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(buf)
	bucket := p.buckets[n]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[n] = append(bucket, buf[:n:n])
}

// Len returns the number of pooled buffers across all buckets.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for _, bucket := range p.buckets {
		total += len(bucket)
	}
	return total
}
