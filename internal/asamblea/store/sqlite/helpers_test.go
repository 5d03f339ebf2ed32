package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	sqlitestore "github.com/BrandonDHaskell/Asamblea/internal/asamblea/store/sqlite"
	"github.com/BrandonDHaskell/Asamblea/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production. The connection is closed when the test ends.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Shared cache keeps the database alive if the pool reopens its conn.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		name,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}
	if _, err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed when the test
// ends.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

func newTestStore(t *testing.T) (*sqlitestore.Store, *sql.DB) {
	t.Helper()
	conn := openTestDB(t)
	return sqlitestore.New(conn, newTestWriter(t, conn)), conn
}

func owner(id, name, tower, unit, coefficient string) store.AttendanceRecord {
	return store.AttendanceRecord{
		ID:          id,
		PersonalID:  "P-" + id,
		Name:        name,
		Tower:       tower,
		Unit:        unit,
		Coefficient: decimal.NewNullDecimal(decimal.RequireFromString(coefficient)),
		Proxies:     ledger.NewProxySlotSet(ledger.ProxySlot{Tower: tower, Unit: unit}),
	}
}

func seedAssembly(t *testing.T, s *sqlitestore.Store, id string, records ...store.AttendanceRecord) {
	t.Helper()
	err := s.CreateAssembly(context.Background(), store.Assembly{
		ID: id, Title: "Assembly " + id, Status: store.StatusCreated,
	}, records)
	if err != nil {
		t.Fatalf("seedAssembly: %v", err)
	}
}
