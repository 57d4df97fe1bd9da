// Package store implements persistence (C8): a SQLite-backed relational
// store for scans, matches and the incremental fingerprint index, with
// versioned migrations and single-writer semantics, grounded on
// internal/learning/store.go and internal/learning/migration.go.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/filelock"
	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/result"
)

// Store wraps the scan database. Writes are serialized across processes
// via an advisory file lock on dbPath+".lock" (adapted from
// internal/filelock), giving the single-writer-concurrent-readers
// semantics §4.8 requires even though SQLite itself already serializes
// writers within one process.
type Store struct {
	db     *sql.DB
	dbPath string
	lock   *filelock.FileLock
}

// Open opens (creating if necessary) the database at dbPath and brings its
// schema up to date. dbPath may be ":memory:" for an ephemeral store.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, cgerrors.ReadFailed(dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, cgerrors.ReadFailed(dbPath, err)
	}
	db.SetMaxOpenConns(1) // SQLite: one writer at a time, avoids SQLITE_BUSY under our own pool

	s := &Store{db: db, dbPath: dbPath}
	if dbPath != ":memory:" {
		s.lock = filelock.NewFileLock(dbPath + ".lock")
	}

	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, cgerrors.MigrationFailed(0, len(migrations), err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withWriteLock(fn func() error) error {
	if s.lock == nil {
		return fn()
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire store write lock: %w", err)
	}
	defer s.lock.Unlock()
	return fn()
}

// StoreScan atomically inserts r as a new scan row and all of its matches
// in a single transaction; on failure the transaction is rolled back and
// no partial state is visible, per §4.8.
func (s *Store) StoreScan(ctx context.Context, r result.ScanResult) (id int64, err error) {
	lockErr := s.withWriteLock(func() error {
		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return txErr
		}
		defer tx.Rollback()

		res, execErr := tx.ExecContext(ctx,
			`INSERT INTO scans (timestamp, root_path) VALUES (?, ?)`,
			r.Timestamp.Unix(), r.Root)
		if execErr != nil {
			return execErr
		}
		scanID, execErr := res.LastInsertId()
		if execErr != nil {
			return execErr
		}

		stmt, prepErr := tx.PrepareContext(ctx,
			`INSERT INTO matches (scan_id, file_path, line, column, pattern, message, severity, category)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if prepErr != nil {
			return prepErr
		}
		defer stmt.Close()

		for _, m := range r.Matches {
			if _, execErr := stmt.ExecContext(ctx, scanID, m.FilePath, m.Line, m.Column, m.Pattern, m.Message, string(m.Severity), string(m.Category)); execErr != nil {
				return execErr
			}
		}

		if execErr := tx.Commit(); execErr != nil {
			return execErr
		}
		id = scanID
		return nil
	})
	if lockErr != nil {
		return 0, cgerrors.TransactionFailed(lockErr)
	}
	return id, nil
}

// Load retrieves a previously stored scan by id, with its Matches in
// canonical order. Errors with ScanNotFound if id does not exist.
func (s *Store) Load(ctx context.Context, id int64) (*result.ScanResult, error) {
	var tsUnix int64
	var root string
	err := s.db.QueryRowContext(ctx, `SELECT timestamp, root_path FROM scans WHERE id = ?`, id).Scan(&tsUnix, &root)
	if err == sql.ErrNoRows {
		return nil, cgerrors.ScanNotFound(id)
	}
	if err != nil {
		return nil, cgerrors.TransactionFailed(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path, line, column, pattern, message, severity, category
		 FROM matches WHERE scan_id = ? ORDER BY file_path, line, column, pattern`, id)
	if err != nil {
		return nil, cgerrors.TransactionFailed(err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		var m match.Match
		var sev, cat string
		if err := rows.Scan(&m.FilePath, &m.Line, &m.Column, &m.Pattern, &m.Message, &sev, &cat); err != nil {
			return nil, cgerrors.TransactionFailed(err)
		}
		m.Severity = match.Severity(sev)
		m.Category = match.Category(cat)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, cgerrors.TransactionFailed(err)
	}

	return &result.ScanResult{
		ID:        id,
		Timestamp: time.Unix(tsUnix, 0).UTC(),
		Root:      root,
		Matches:   matches,
	}, nil
}

// ListHistory returns every stored scan as a ScanSummary, newest first.
func (s *Store) ListHistory(ctx context.Context) ([]result.ScanSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, timestamp, root_path FROM scans ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, cgerrors.TransactionFailed(err)
	}
	defer rows.Close()

	var out []result.ScanSummary
	for rows.Next() {
		var sum result.ScanSummary
		var tsUnix int64
		if err := rows.Scan(&sum.ID, &tsUnix, &sum.Root); err != nil {
			return nil, cgerrors.TransactionFailed(err)
		}
		sum.Timestamp = time.Unix(tsUnix, 0).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Compare loads scans idA (older) and idB (newer) and returns their diff.
// Both scans must exist.
func (s *Store) Compare(ctx context.Context, idA, idB int64) (*result.ScanDiff, error) {
	a, err := s.Load(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := s.Load(ctx, idB)
	if err != nil {
		return nil, err
	}
	diff := result.Diff(*a, *b)
	return &diff, nil
}

// FingerprintEntry is one (path, content fingerprint) pair recorded for
// incremental-mode consultation.
type FingerprintEntry struct {
	Path               string
	ContentFingerprint string
}

// UpdateFingerprints upserts the given (path, content fingerprint) pairs
// under scanConfigFP, used after a successful scan to prepare incremental
// mode for the next run.
func (s *Store) UpdateFingerprints(ctx context.Context, scanConfigFP string, entries []FingerprintEntry) error {
	return s.withWriteLock(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO file_fingerprints (scan_config_fp, path, content_fp) VALUES (?, ?, ?)
			 ON CONFLICT(scan_config_fp, path) DO UPDATE SET content_fp = excluded.content_fp`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, scanConfigFP, e.Path, e.ContentFingerprint); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// FingerprintIndex returns the full recorded (path -> content fingerprint)
// map for scanConfigFP, consulted by the traverser (C5) in incremental
// mode.
func (s *Store) FingerprintIndex(ctx context.Context, scanConfigFP string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, content_fp FROM file_fingerprints WHERE scan_config_fp = ?`, scanConfigFP)
	if err != nil {
		return nil, cgerrors.TransactionFailed(err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, fp string
		if err := rows.Scan(&path, &fp); err != nil {
			return nil, cgerrors.TransactionFailed(err)
		}
		out[path] = fp
	}
	return out, rows.Err()
}
