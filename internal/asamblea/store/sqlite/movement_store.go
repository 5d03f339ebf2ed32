package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	dbpkg "github.com/BrandonDHaskell/Asamblea/internal/db"
)

type MovementStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewMovementStore(db *sql.DB, writer *dbpkg.Worker) *MovementStore {
	return &MovementStore{db: db, writer: writer}
}

func (s *MovementStore) RecordMovement(ctx context.Context, m store.ProxyMovement) error {
	atMs := toMs(m.At)
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO proxy_movements(
  movement_id, assembly_id, kind, from_record_id, to_record_id,
  tower, unit, control_number, at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			m.ID, m.AssemblyID, string(m.Kind), m.FromRecordID, m.ToRecordID,
			m.Slot.Tower, m.Slot.Unit, m.Slot.ControlNumber, atMs,
		); err != nil {
			return fmt.Errorf("RecordMovement insert: %w", err)
		}
		return nil
	})
}

func (s *MovementStore) ListMovements(ctx context.Context, assemblyID string, limit int) ([]store.ProxyMovement, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT movement_id, assembly_id, kind, from_record_id, to_record_id,
       tower, unit, control_number, at_ms
FROM proxy_movements
WHERE assembly_id = ?
ORDER BY at_ms DESC, rowid DESC
LIMIT ?;
`, assemblyID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListMovements query: %w", err)
	}
	defer rows.Close()

	var out []store.ProxyMovement
	for rows.Next() {
		var (
			m    store.ProxyMovement
			kind string
			atMs int64
		)
		if err := rows.Scan(
			&m.ID, &m.AssemblyID, &kind, &m.FromRecordID, &m.ToRecordID,
			&m.Slot.Tower, &m.Slot.Unit, &m.Slot.ControlNumber, &atMs,
		); err != nil {
			return nil, fmt.Errorf("ListMovements scan: %w", err)
		}
		m.Kind = store.MovementKind(kind)
		m.At = fromMs(atMs)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListMovements rows: %w", err)
	}
	return out, nil
}
