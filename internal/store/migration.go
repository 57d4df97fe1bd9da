package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migration is one forward-applicable schema change, grounded on
// internal/learning/migration.go's versioned-migration shape.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all schema migrations. Version 1
// matches the logical schema of §4.8 exactly; version 2 demonstrates
// forward-applicability by adding an enrichment column idempotently,
// following the teacher's addColumnIfNotExistsTx pattern for columns
// SQLite cannot add with a plain IF NOT EXISTS clause.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial scans/matches/file_fingerprints schema",
		SQL:         schemaSQL,
	},
	{
		Version:     2,
		Description: "add metrics_json enrichment column to scans",
	},
}

// applyMigrations brings db up to the latest schema version inside a
// single serializable transaction, so a concurrent reader never observes a
// partially-migrated schema.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ensureSchemaVersionTableTx(tx); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	applied, err := appliedVersionsTx(tx)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		if m.Version == 2 {
			if err := addColumnIfNotExistsTx(ctx, tx, "scans", "metrics_json", "TEXT"); err != nil {
				return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
			}
		}

		if m.SQL != "" {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
			}
		}

		if err := recordMigrationTx(ctx, tx, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

func ensureSchemaVersionTableTx(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func appliedVersionsTx(tx *sql.Tx) (map[int]bool, error) {
	rows, err := tx.Query(`SELECT version FROM schema_version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func recordMigrationTx(ctx context.Context, tx *sql.Tx, version int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, version)
	return err
}

// addColumnIfNotExistsTx adds column to table unless it already exists.
// SQLite has no native "ADD COLUMN IF NOT EXISTS", so existing columns are
// discovered via PRAGMA table_info first, mirroring the teacher's
// addColumnIfNotExistsTx.
func addColumnIfNotExistsTx(ctx context.Context, tx *sql.Tx, table, column, definition string) error {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil // already present
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
