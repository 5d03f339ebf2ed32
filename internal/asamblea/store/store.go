// Package store defines the persistence contracts for assemblies, their
// attendance records and the proxy movement audit log.
package store

import (
	"errors"
)

var (
	// ErrNotFound is returned when the assembly or record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a versioned update lost a race. Nothing
	// in the batch was applied.
	ErrConflict = errors.New("store: version conflict")
)

// Store is the full repository surface used by the services.
type Store interface {
	AssemblyStore
	RecordStore
	MovementStore
}
