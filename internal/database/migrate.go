package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

// ErrMigrationChanged reports an applied migration whose file no longer
// matches the checksum recorded when it ran.
var ErrMigrationChanged = errors.New("applied migration was modified")

type migrationFile struct {
	version  string
	body     string
	checksum string
}

// ApplyMigrations runs the *.sql files at the root of fsys that are not yet
// recorded in schema_migrations, in file name order, one transaction each.
// It returns the versions applied by this call.
func ApplyMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}

	files, err := readMigrationFiles(fsys)
	if err != nil {
		return nil, err
	}

	recorded, err := appliedChecksums(ctx, db)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(files))
	for _, file := range files {
		if checksum, ok := recorded[file.version]; ok {
			// Rows written before checksums were tracked have an empty value.
			if checksum != "" && checksum != file.checksum {
				return applied, fmt.Errorf("%w: %s", ErrMigrationChanged, file.version)
			}
			continue
		}

		if err := applyMigration(ctx, db, file); err != nil {
			return applied, err
		}
		logger.Info("migration applied", "version", file.version)
		applied = append(applied, file.version)
	}

	if len(applied) == 0 {
		logger.Debug("schema up to date", "migrations", len(files))
	}
	return applied, nil
}

func readMigrationFiles(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	files := make([]migrationFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(content)
		files = append(files, migrationFile{
			version:  entry.Name(),
			body:     string(content),
			checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].version < files[j].version
	})
	return files, nil
}

func applyMigration(ctx context.Context, db *sql.DB, file migrationFile) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, file.body); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", file.version, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, checksum) VALUES (?, ?)`, file.version, file.checksum); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", file.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file.version, err)
	}
	return nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		checksum TEXT NOT NULL DEFAULT '',
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func appliedChecksums(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	recorded := map[string]string{}
	for rows.Next() {
		var version, checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		recorded[version] = checksum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return recorded, nil
}
