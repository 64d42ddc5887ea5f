// Package parallel runs row-banded image kernels on a work-stealing pool of
// goroutines.
package parallel
