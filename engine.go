package sod

import (
	"sync"

	"github.com/gogpu/sod/backend"
	"github.com/gogpu/sod/native"

	// Registers the pure Go engine so a default is always available.
	_ "github.com/gogpu/sod/backend/software"
)

var (
	engineMu      sync.RWMutex
	defaultEngine native.Engine
)

// SetEngine sets the engine used by constructors called without WithEngine.
// Pass nil to go back to the best engine from the backend registry.
//
// Images keep the engine they were created with; SetEngine only affects
// images created afterwards.
func SetEngine(e native.Engine) {
	engineMu.Lock()
	defaultEngine = e
	engineMu.Unlock()

	if e != nil {
		propagateLogger(e, Logger())
	}
}

// DefaultEngine returns the engine used by constructors called without
// WithEngine. On first use it is created from the backend registry.
//
// DefaultEngine is safe for concurrent use.
func DefaultEngine() native.Engine {
	engineMu.RLock()
	e := defaultEngine
	engineMu.RUnlock()
	if e != nil {
		return e
	}

	engineMu.Lock()
	defer engineMu.Unlock()
	if defaultEngine == nil {
		defaultEngine = backend.MustDefault()
		propagateLogger(defaultEngine, Logger())
	}
	return defaultEngine
}
