package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel/manga-link-finder/migrations"
	_ "modernc.org/sqlite"
)

func Open(sqlitePath string) (*sql.DB, error) {
	dir := filepath.Dir(sqlitePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []struct {
		stmt string
		desc string
	}{
		{stmt: `PRAGMA journal_mode = WAL;`, desc: "set sqlite WAL"},
		{stmt: `PRAGMA busy_timeout = 5000;`, desc: "set sqlite busy timeout"},
		{stmt: `PRAGMA foreign_keys = ON;`, desc: "enable sqlite foreign keys"},
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma.stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma.desc, err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// OpenAndMigrate opens sqlitePath and applies the schema. migrationsPath
// overrides the embedded schema files when set.
func OpenAndMigrate(ctx context.Context, sqlitePath string, migrationsPath string, logger *slog.Logger) (*sql.DB, error) {
	db, err := Open(sqlitePath)
	if err != nil {
		return nil, err
	}

	if _, err := ApplyMigrations(ctx, db, MigrationsSource(migrationsPath), logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func MigrationsSource(migrationsPath string) fs.FS {
	if trimmed := strings.TrimSpace(migrationsPath); trimmed != "" {
		return os.DirFS(trimmed)
	}
	return migrations.FS
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
