package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	dbpkg "github.com/BrandonDHaskell/Asamblea/internal/db"
)

type RecordStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewRecordStore(db *sql.DB, writer *dbpkg.Worker) *RecordStore {
	return &RecordStore{db: db, writer: writer}
}

const recordColumns = `record_id, assembly_id, personal_id, name, phone, tower, unit,
  control_number, coefficient, entry_log, proxies, version,
  created_at_ms, updated_at_ms`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *RecordStore) GetRecord(ctx context.Context, id string) (store.AttendanceRecord, error) {
	return getRecord(ctx, s.db, id)
}

func getRecord(ctx context.Context, q queryer, id string) (store.AttendanceRecord, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+recordColumns+`
FROM attendance_records
WHERE record_id = ?;
`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.AttendanceRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.AttendanceRecord{}, fmt.Errorf("GetRecord: %w", err)
	}
	return r, nil
}

func (s *RecordStore) ListRecords(ctx context.Context, assemblyID string) ([]store.AttendanceRecord, error) {
	return s.queryRecords(ctx, "ListRecords", `
SELECT `+recordColumns+`
FROM attendance_records
WHERE assembly_id = ?
ORDER BY roster_pos;
`, assemblyID)
}

func (s *RecordStore) SearchRecords(ctx context.Context, assemblyID string, q store.RecordQuery) ([]store.AttendanceRecord, error) {
	where := []string{"assembly_id = ?"}
	args := []any{assemblyID}
	for _, f := range recordFilters(q, true) {
		where = append(where, f.clause)
		args = append(args, f.arg)
	}
	return s.queryRecords(ctx, "SearchRecords", `
SELECT `+recordColumns+`
FROM attendance_records
WHERE `+strings.Join(where, " AND ")+`
ORDER BY name, roster_pos;
`, args...)
}

func (s *RecordStore) SuggestRecords(ctx context.Context, assemblyID string, q store.RecordQuery, limit int) ([]store.AttendanceRecord, error) {
	clause := "assembly_id = ?"
	args := []any{assemblyID}
	if filters := recordFilters(q, false); len(filters) > 0 {
		var or []string
		for _, f := range filters {
			or = append(or, f.clause)
			args = append(args, f.arg)
		}
		clause += " AND (" + strings.Join(or, " OR ") + ")"
	}
	if limit <= 0 {
		limit = -1
	}
	return s.queryRecords(ctx, "SuggestRecords", `
SELECT `+recordColumns+`
FROM attendance_records
WHERE `+clause+`
ORDER BY name, roster_pos
LIMIT ?;
`, append(args, limit)...)
}

type filter struct {
	clause string
	arg    string
}

// recordFilters turns the set query fields into case-insensitive substring
// predicates. Suggestions never filter on the personal id.
func recordFilters(q store.RecordQuery, withPersonalID bool) []filter {
	var out []filter
	add := func(column, value string) {
		if value != "" {
			out = append(out, filter{
				clause: "instr(lower(coalesce(" + column + ", '')), lower(?)) > 0",
				arg:    value,
			})
		}
	}
	if withPersonalID {
		add("personal_id", q.PersonalID)
	}
	add("tower", q.Tower)
	add("unit", q.Unit)
	add("control_number", q.ControlNumber)
	return out
}

func (s *RecordStore) queryRecords(ctx context.Context, op, query string, args ...any) ([]store.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	var out []store.AttendanceRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}

func (s *RecordStore) UpdateRecordProxySlots(ctx context.Context, id string, proxies ledger.ProxySlotSet) (store.AttendanceRecord, error) {
	out, err := s.ApplyRecordUpdates(ctx, store.RecordUpdate{ID: id, Proxies: &proxies})
	if err != nil {
		return store.AttendanceRecord{}, err
	}
	return out[0], nil
}

func (s *RecordStore) UpdateRecordEntryLog(ctx context.Context, id string, log ledger.EntryLog) (store.AttendanceRecord, error) {
	out, err := s.ApplyRecordUpdates(ctx, store.RecordUpdate{ID: id, EntryLog: &log})
	if err != nil {
		return store.AttendanceRecord{}, err
	}
	return out[0], nil
}

// ApplyRecordUpdates runs the whole batch in one worker transaction. Any
// version mismatch rolls every element back.
func (s *RecordStore) ApplyRecordUpdates(ctx context.Context, updates ...store.RecordUpdate) ([]store.AttendanceRecord, error) {
	var out []store.AttendanceRecord
	nowMs := time.Now().UTC().UnixMilli()

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		out = out[:0]
		for _, u := range updates {
			set, args, err := updateAssignments(u)
			if err != nil {
				return err
			}
			set = append(set, "version = version + 1", "updated_at_ms = ?")
			args = append(args, nowMs)

			query := `UPDATE attendance_records SET ` + strings.Join(set, ", ") + ` WHERE record_id = ?`
			args = append(args, u.ID)
			if u.ExpectedVersion != 0 {
				query += ` AND version = ?`
				args = append(args, u.ExpectedVersion)
			}

			res, err := tx.ExecContext(ctx, query+";", args...)
			if err != nil {
				return fmt.Errorf("ApplyRecordUpdates %s: %w", u.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("ApplyRecordUpdates rows affected: %w", err)
			}
			if n == 0 {
				if _, err := getRecord(ctx, tx, u.ID); err != nil {
					return err
				}
				return store.ErrConflict
			}

			r, err := getRecord(ctx, tx, u.ID)
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func updateAssignments(u store.RecordUpdate) ([]string, []any, error) {
	var (
		set  []string
		args []any
	)
	if u.Proxies != nil {
		b, err := json.Marshal(*u.Proxies)
		if err != nil {
			return nil, nil, fmt.Errorf("encode proxies %s: %w", u.ID, err)
		}
		set = append(set, "proxies = ?")
		args = append(args, string(b))
	}
	if u.EntryLog != nil {
		b, err := json.Marshal(*u.EntryLog)
		if err != nil {
			return nil, nil, fmt.Errorf("encode entry log %s: %w", u.ID, err)
		}
		set = append(set, "entry_log = ?")
		args = append(args, string(b))
	}
	switch {
	case u.ClearControlNumber:
		set = append(set, "control_number = NULL")
	case u.ControlNumber != nil:
		set = append(set, "control_number = ?")
		args = append(args, *u.ControlNumber)
	}
	return set, args, nil
}

func scanRecord(row rowScanner) (store.AttendanceRecord, error) {
	var (
		r                  store.AttendanceRecord
		control            sql.NullString
		entryLog, proxies  string
		createdMs, updated int64
	)
	if err := row.Scan(
		&r.ID, &r.AssemblyID, &r.PersonalID, &r.Name, &r.Phone, &r.Tower, &r.Unit,
		&control, &r.Coefficient, &entryLog, &proxies, &r.Version,
		&createdMs, &updated,
	); err != nil {
		return store.AttendanceRecord{}, err
	}
	if control.Valid {
		r.ControlNumber = &control.String
	}
	if err := json.Unmarshal([]byte(entryLog), &r.EntryLog); err != nil {
		return store.AttendanceRecord{}, fmt.Errorf("decode entry log %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(proxies), &r.Proxies); err != nil {
		return store.AttendanceRecord{}, fmt.Errorf("decode proxies %s: %w", r.ID, err)
	}
	r.CreatedAt = fromMs(createdMs)
	r.UpdatedAt = fromMs(updated)
	return r, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
