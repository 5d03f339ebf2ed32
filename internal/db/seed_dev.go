package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DevAssemblyID is the assembly created by SeedDev.
const DevAssemblyID = "00000000-0000-4000-8000-000000000001"

type SeedDevOptions struct {
	// Owners is the number of roster rows to create (default 6). Owners are
	// spread over towers A and B, each holding its own unit's proxy.
	Owners int
}

// SeedDev creates a small ACTIVE assembly for local testing. It is a no-op
// when the dev assembly already exists.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	if opt.Owners <= 0 {
		opt.Owners = 6
	}
	now := time.Now().UTC().UnixMilli()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO assemblies(
  assembly_id, title, description, status, created_by,
  created_at_ms, updated_at_ms, started_at_ms
) VALUES (?, 'Dev assembly', 'Seeded for local testing', 'ACTIVE', 'seed', ?, ?, ?);`,
		DevAssemblyID, now, now, now)
	if err != nil {
		return fmt.Errorf("seed assembly: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	for i := range opt.Owners {
		tower := "A"
		if i%2 == 1 {
			tower = "B"
		}
		unit := fmt.Sprintf("%d", 101+i/2)
		proxies := fmt.Sprintf(`{"proxy_1":{"tower":%q,"unit":%q,"control_number":""}}`, tower, unit)
		coefficient := "1.2500"

		if _, err := tx.ExecContext(ctx, `
INSERT INTO attendance_records(
  record_id, assembly_id, roster_pos, personal_id, name,
  tower, unit, coefficient, proxies, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			fmt.Sprintf("00000000-0000-4000-8000-1%011d", i+1), DevAssemblyID, i,
			fmt.Sprintf("DEV-%04d", i+1), fmt.Sprintf("Owner %s-%s", tower, unit),
			tower, unit, coefficient, proxies, now, now,
		); err != nil {
			return fmt.Errorf("seed record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	return nil
}
