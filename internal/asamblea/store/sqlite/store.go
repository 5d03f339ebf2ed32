// Package sqlite implements store.Store on SQLite. Reads go straight to
// the pool; every write runs on the shared db.Worker.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	dbpkg "github.com/BrandonDHaskell/Asamblea/internal/db"
)

// Store bundles the three SQLite stores behind store.Store.
type Store struct {
	*AssemblyStore
	*RecordStore
	*MovementStore
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB, writer *dbpkg.Worker) *Store {
	return &Store{
		AssemblyStore: NewAssemblyStore(db, writer),
		RecordStore:   NewRecordStore(db, writer),
		MovementStore: NewMovementStore(db, writer),
	}
}

func toMs(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixMilli()
}

func fromMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMs(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}

func fromNullMs(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMs(v.Int64)
	return &t
}
