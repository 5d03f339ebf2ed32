package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
)

type MovementKind string

const (
	MovementTransfer MovementKind = "transfer"
	MovementReturn   MovementKind = "return"
)

// ProxyMovement records one proxy changing hands.
type ProxyMovement struct {
	ID           string
	AssemblyID   string
	Kind         MovementKind
	FromRecordID string
	ToRecordID   string
	Slot         ledger.ProxySlot
	At           time.Time
}

// MovementStore persists proxy movements as an append-only audit log.
type MovementStore interface {
	RecordMovement(ctx context.Context, m ProxyMovement) error
	// ListMovements returns an assembly's movements, newest first. A
	// non-positive limit returns all of them.
	ListMovements(ctx context.Context, assemblyID string, limit int) ([]ProxyMovement, error)
}
