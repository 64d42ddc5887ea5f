package backend

import (
	"sort"
	"sync"

	"github.com/gogpu/sod/native"
)

// EngineFactory creates a new engine instance.
type EngineFactory func() native.Engine

// registry holds registered engines.
var (
	registryMu sync.RWMutex
	engines    = make(map[string]EngineFactory)
	// Priority order for engine selection (first available wins).
	// Native > Software (the C engine is faster, software is the fallback).
	enginePriority = []string{BackendNative, BackendSoftware}
)

// Register registers an engine factory with the given name.
// This is typically called from init() functions in engine packages.
// If an engine with the same name is already registered, it will be replaced.
func Register(name string, factory EngineFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	engines[name] = factory
}

// Unregister removes an engine from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(engines, name)
}

// Available returns the sorted list of registered engine names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an engine with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := engines[name]
	return ok
}

// Get returns a new engine instance by name.
// Returns nil if the engine is not registered.
func Get(name string) native.Engine {
	registryMu.RLock()
	factory, ok := engines[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available engine based on priority.
// Returns nil if no engines are registered.
func Default() native.Engine {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range enginePriority {
		if factory, ok := engines[name]; ok {
			if e := factory(); e != nil {
				return e
			}
		}
	}

	// Fallback: first registered name in sorted order
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if e := engines[name](); e != nil {
			return e
		}
	}

	return nil
}

// MustDefault returns the default engine or panics.
func MustDefault() native.Engine {
	e := Default()
	if e == nil {
		panic("backend: no engine available")
	}
	return e
}
