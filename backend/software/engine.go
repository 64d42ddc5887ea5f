package software

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/sod/backend"
	"github.com/gogpu/sod/internal/parallel"
	"github.com/gogpu/sod/native"
)

// Engine errors.
var (
	// ErrInvalidDimensions is returned when width, height or channels is
	// non-positive or their product exceeds native.MaxElements.
	ErrInvalidDimensions = errors.New("software: invalid dimensions")

	// ErrUnknownDescriptor is returned for descriptors this engine did not
	// allocate or has already freed.
	ErrUnknownDescriptor = errors.New("software: unknown or freed descriptor")

	// ErrChannelOutOfRange is returned when a channel index is outside the image.
	ErrChannelOutOfRange = errors.New("software: channel out of range")

	// ErrUnsupportedChannels is returned when an operation cannot handle the
	// channel count of its input.
	ErrUnsupportedChannels = errors.New("software: unsupported channel count")

	// ErrInvalidArgument is returned for out-of-range numeric parameters.
	ErrInvalidArgument = errors.New("software: invalid argument")
)

// Default tuning values.
const (
	// DefaultPoolSize is the number of freed buffers retained per size.
	DefaultPoolSize = 4

	// DefaultJPEGQuality is the quality used when encoding JPEG files.
	DefaultJPEGQuality = 90
)

// init registers the software engine on package import.
func init() {
	backend.Register(backend.BackendSoftware, func() native.Engine {
		return New(WithWorkers(runtime.GOMAXPROCS(0)))
	})
}

// Option configures an Engine.
type Option func(*Engine)

// WithPoolSize sets how many freed buffers of each size are kept for reuse.
// Zero means unlimited; a negative value disables pooling.
func WithPoolSize(n int) Option {
	return func(e *Engine) {
		e.pool = NewPool(n)
	}
}

// WithWorkers runs blur, resize and edge detection in row bands on n
// goroutines. n <= 1 keeps everything on the calling goroutine. Engines with
// workers should be closed when no longer needed.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if e.workers != nil {
			e.workers.Close()
			e.workers = nil
		}
		if n > 1 {
			e.workers = parallel.NewWorkerPool(n)
		}
	}
}

// WithJPEGQuality sets the JPEG encode quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(e *Engine) {
		e.jpegQuality = min(max(q, 1), 100)
	}
}

// WithLogger sets the engine logger. By default the engine is silent.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.SetLogger(l)
	}
}

// Stats reports allocation accounting.
type Stats struct {
	// Allocs is the number of buffers handed out since creation.
	Allocs int64
	// Frees is the number of buffers released since creation.
	Frees int64
	// Live is the number of buffers currently allocated.
	Live int
	// LiveBytes is the total size of live buffers.
	LiveBytes int
}

// Engine is a CPU pixel engine over Go-allocated float32 buffers.
//
// Thread safety: all methods are safe for concurrent use. Operations on the
// same descriptor must not race with Free of that descriptor.
type Engine struct {
	mu   sync.Mutex
	live map[unsafe.Pointer][]float32

	pool        *Pool
	workers     *parallel.WorkerPool
	jpegQuality int

	allocs atomic.Int64
	frees  atomic.Int64

	logger atomic.Pointer[slog.Logger]
}

var _ native.Engine = (*Engine)(nil)

// New creates a software engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		live:        make(map[unsafe.Pointer][]float32),
		pool:        NewPool(DefaultPoolSize),
		jpegQuality: DefaultJPEGQuality,
	}
	e.logger.Store(slog.New(slog.DiscardHandler))
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close stops the engine's worker goroutines. Buffers stay valid and the
// engine keeps working serially.
func (e *Engine) Close() {
	if e.workers != nil {
		e.workers.Close()
	}
}

// Name returns the engine identifier.
func (e *Engine) Name() string {
	return backend.BackendSoftware
}

// SetLogger sets the logger used for diagnostics. Passing nil silences the engine.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	e.logger.Store(l)
}

func (e *Engine) log() *slog.Logger {
	return e.logger.Load()
}

// Stats returns a snapshot of allocation counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	live := len(e.live)
	bytes := 0
	for _, buf := range e.live {
		bytes += len(buf) * 4
	}
	e.mu.Unlock()

	return Stats{
		Allocs:    e.allocs.Load(),
		Frees:     e.frees.Load(),
		Live:      live,
		LiveBytes: bytes,
	}
}

// Owns reports whether d is a live buffer of this engine.
func (e *Engine) Owns(d native.Descriptor) bool {
	_, err := e.buffer(d)
	return err == nil
}

// Allocate returns a zeroed buffer of the given shape.
func (e *Engine) Allocate(width, height, channels int) (native.Descriptor, error) {
	d, _, err := e.newBuffer(width, height, channels)
	return d, err
}

// Free releases a buffer. Unknown or already freed descriptors are ignored
// and logged, so a double free can never hand the same memory out twice.
func (e *Engine) Free(d native.Descriptor) {
	if d.IsNull() {
		return
	}

	e.mu.Lock()
	buf, ok := e.live[d.Data]
	if ok {
		delete(e.live, d.Data)
	}
	e.mu.Unlock()

	if !ok {
		e.log().Warn("software: free of unknown buffer", "desc", d.String())
		return
	}

	e.frees.Add(1)
	e.pool.Put(buf)
	e.log().Debug("software: free", "desc", d.String())
}

// Copy returns an independent copy of d.
func (e *Engine) Copy(d native.Descriptor) (native.Descriptor, error) {
	src, err := e.buffer(d)
	if err != nil {
		return native.Null, err
	}
	out, dst, err := e.newBuffer(d.Width, d.Height, d.Channels)
	if err != nil {
		return native.Null, err
	}
	copy(dst, src)
	return out, nil
}

// newBuffer allocates and registers a zeroed buffer.
func (e *Engine) newBuffer(width, height, channels int) (native.Descriptor, []float32, error) {
	n, ok := native.Elements(width, height, channels)
	if !ok {
		return native.Null, nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, width, height, channels)
	}

	buf := e.pool.Get(n)
	d, err := native.NewFloat32(width, height, channels, buf)
	if err != nil {
		return native.Null, nil, err
	}

	e.mu.Lock()
	e.live[d.Data] = buf
	e.mu.Unlock()

	e.allocs.Add(1)
	e.log().Debug("software: allocate", "desc", d.String())
	return d, buf, nil
}

// buffer resolves a descriptor to its live backing slice.
func (e *Engine) buffer(d native.Descriptor) ([]float32, error) {
	if d.IsNull() {
		return nil, fmt.Errorf("%w: null descriptor", ErrUnknownDescriptor)
	}
	if d.Kind != native.KindFloat32 {
		return nil, fmt.Errorf("%w: %s buffers are not supported", ErrUnknownDescriptor, d.Kind)
	}

	e.mu.Lock()
	buf, ok := e.live[d.Data]
	e.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDescriptor, d)
	}
	if len(buf) != d.Len() {
		return nil, fmt.Errorf("%w: %s does not match buffer of %d elements", native.ErrShapeMismatch, d, len(buf))
	}
	return buf, nil
}
