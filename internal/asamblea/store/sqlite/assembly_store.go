package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	dbpkg "github.com/BrandonDHaskell/Asamblea/internal/db"
)

type AssemblyStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAssemblyStore(db *sql.DB, writer *dbpkg.Worker) *AssemblyStore {
	return &AssemblyStore{db: db, writer: writer}
}

const assemblyColumns = `assembly_id, title, description, status, created_by,
  created_at_ms, updated_at_ms, started_at_ms, closed_at_ms`

func (s *AssemblyStore) CreateAssembly(ctx context.Context, a store.Assembly, records []store.AttendanceRecord) error {
	createdMs := toMs(a.CreatedAt)
	updatedMs := createdMs
	if !a.UpdatedAt.IsZero() {
		updatedMs = toMs(a.UpdatedAt)
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO assemblies(`+assemblyColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			a.ID, a.Title, a.Description, string(a.Status), a.CreatedBy,
			createdMs, updatedMs, nullMs(a.StartedAt), nullMs(a.ClosedAt),
		); err != nil {
			return fmt.Errorf("CreateAssembly insert: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO attendance_records(
  record_id, assembly_id, roster_pos, personal_id, name, phone, tower, unit,
  control_number, coefficient, entry_log, proxies, version,
  created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`)
		if err != nil {
			return fmt.Errorf("CreateAssembly prepare: %w", err)
		}
		defer stmt.Close()

		for i, r := range records {
			proxies, err := json.Marshal(r.Proxies)
			if err != nil {
				return fmt.Errorf("CreateAssembly encode proxies %s: %w", r.ID, err)
			}
			entryLog, err := json.Marshal(r.EntryLog)
			if err != nil {
				return fmt.Errorf("CreateAssembly encode entry log %s: %w", r.ID, err)
			}
			version := max(r.Version, 1)
			if _, err := stmt.ExecContext(ctx,
				r.ID, a.ID, i, r.PersonalID, r.Name, r.Phone, r.Tower, r.Unit,
				nullString(r.ControlNumber), r.Coefficient, string(entryLog), string(proxies), version,
				createdMs, createdMs,
			); err != nil {
				return fmt.Errorf("CreateAssembly insert record %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

func (s *AssemblyStore) GetAssembly(ctx context.Context, id string) (store.Assembly, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+assemblyColumns+`
FROM assemblies
WHERE assembly_id = ?;
`, id)
	a, err := scanAssembly(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Assembly{}, store.ErrNotFound
	}
	if err != nil {
		return store.Assembly{}, fmt.Errorf("GetAssembly: %w", err)
	}
	return a, nil
}

func (s *AssemblyStore) ListAssemblies(ctx context.Context, f store.AssemblyFilter) ([]store.Assembly, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.CreatedFrom != nil {
		where = append(where, "created_at_ms >= ?")
		args = append(args, f.CreatedFrom.UTC().UnixMilli())
	}
	if f.CreatedTo != nil {
		where = append(where, "created_at_ms < ?")
		args = append(args, f.CreatedTo.UTC().UnixMilli())
	}
	if f.Search != "" {
		where = append(where, "(instr(lower(title), lower(?)) > 0 OR instr(lower(description), lower(?)) > 0)")
		args = append(args, f.Search, f.Search)
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assemblies `+clause+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListAssemblies count: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+assemblyColumns+`
FROM assemblies
`+clause+`
ORDER BY created_at_ms DESC, assembly_id DESC
LIMIT ? OFFSET ?;
`, append(args, limit, max(f.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListAssemblies query: %w", err)
	}
	defer rows.Close()

	var out []store.Assembly
	for rows.Next() {
		a, err := scanAssembly(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListAssemblies scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListAssemblies rows: %w", err)
	}
	return out, total, nil
}

func (s *AssemblyStore) UpdateAssembly(ctx context.Context, a store.Assembly) error {
	updatedMs := toMs(a.UpdatedAt)
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE assemblies
SET title         = ?,
    description   = ?,
    status        = ?,
    started_at_ms = ?,
    closed_at_ms  = ?,
    updated_at_ms = ?
WHERE assembly_id = ?;
`, a.Title, a.Description, string(a.Status), nullMs(a.StartedAt), nullMs(a.ClosedAt), updatedMs, a.ID)
		if err != nil {
			return fmt.Errorf("UpdateAssembly: %w", err)
		}
		return requireRow(res)
	})
}

func (s *AssemblyStore) DeleteAssembly(ctx context.Context, id string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM assemblies WHERE assembly_id = ?;`, id)
		if err != nil {
			return fmt.Errorf("DeleteAssembly: %w", err)
		}
		return requireRow(res)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssembly(row rowScanner) (store.Assembly, error) {
	var (
		a                  store.Assembly
		status             string
		createdMs, updated int64
		started, closed    sql.NullInt64
	)
	if err := row.Scan(
		&a.ID, &a.Title, &a.Description, &status, &a.CreatedBy,
		&createdMs, &updated, &started, &closed,
	); err != nil {
		return store.Assembly{}, err
	}
	a.Status = store.AssemblyStatus(status)
	a.CreatedAt = fromMs(createdMs)
	a.UpdatedAt = fromMs(updated)
	a.StartedAt = fromNullMs(started)
	a.ClosedAt = fromNullMs(closed)
	return a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
