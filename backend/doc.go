// Package backend provides a pluggable pixel engine registry.
//
// The backend package lets sod run on top of different pixel engines: the
// pure Go software engine that ships with this module, or a binding to a
// native library. Engines are registered by name from init() functions and
// selected at runtime.
//
// # Engine Registration
//
// The software engine registers itself when its package is imported. The
// sod package imports it, so it is always available:
//
//	import _ "github.com/gogpu/sod/backend/software"
//
// # Engine Selection
//
// Use Default() to get the best available engine, or Get() to request
// a specific engine by name:
//
//	// Get the default (best available) engine
//	e := backend.Default()
//
//	// Or request a specific engine
//	e := backend.Get("software")
//
// Each call creates a new engine instance. Buffers must be freed by the
// engine that allocated them, so share one instance between the images
// that exchange descriptors.
//
// # Available Engines
//
// - "software": pure Go CPU engine (always available)
// - "native": cgo binding to the SOD C library (external, optional)
package backend
