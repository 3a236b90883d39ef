package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape.
const schemaVersion = 1

// ErrNewerSchema reports a database written by a newer captionmux.
var ErrNewerSchema = errors.New("history database is newer than this build")

// initSchema creates the tables on first use. The run log is disposable, so
// a database from an older build is rebuilt rather than migrated; one from a
// newer build is left untouched.
func (s *Store) initSchema(ctx context.Context) error {
	version, found, err := s.storedVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case found && version == schemaVersion:
		return nil
	case version > schemaVersion:
		return fmt.Errorf("%w: version %d, supported %d", ErrNewerSchema, version, schemaVersion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if found {
		for _, stmt := range []string{"DROP TABLE IF EXISTS runs", "DROP TABLE IF EXISTS schema_version"} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("drop outdated history: %w", err)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// storedVersion reports found=false for a database that was never
// initialized.
func (s *Store) storedVersion(ctx context.Context) (int, bool, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&exists); err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, false, nil
	}
	var stored sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&stored); err != nil {
		return 0, true, fmt.Errorf("read schema version: %w", err)
	}
	return int(stored.Int64), true, nil
}
