package store

import (
	"context"
	"time"
)

type AssemblyStatus string

const (
	StatusCreated AssemblyStatus = "CREATED"
	StatusActive  AssemblyStatus = "ACTIVE"
	StatusClosed  AssemblyStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s AssemblyStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusActive, StatusClosed:
		return true
	}
	return false
}

type Assembly struct {
	ID          string
	Title       string
	Description string
	Status      AssemblyStatus
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	ClosedAt    *time.Time
}

// AssemblyFilter narrows ListAssemblies. Zero fields do not filter.
// CreatedFrom is inclusive, CreatedTo exclusive.
type AssemblyFilter struct {
	Search      string
	Status      AssemblyStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Offset      int
	Limit       int
}

type AssemblyStore interface {
	// CreateAssembly stores the assembly together with its roster.
	CreateAssembly(ctx context.Context, a Assembly, records []AttendanceRecord) error
	GetAssembly(ctx context.Context, id string) (Assembly, error)
	// ListAssemblies returns one page, newest first, plus the total number
	// of assemblies matching the filter.
	ListAssemblies(ctx context.Context, f AssemblyFilter) ([]Assembly, int, error)
	UpdateAssembly(ctx context.Context, a Assembly) error
	// DeleteAssembly removes the assembly, its records and its movements.
	DeleteAssembly(ctx context.Context, id string) error
}
