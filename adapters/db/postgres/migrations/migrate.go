// Package migrations applies the embedded results schema to PostgreSQL.
package migrations

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"roidecode/internal"
)

//go:embed sql/*.sql
var embedded embed.FS

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

// Migrator handles database schema migrations
type Migrator struct {
	db     *sql.DB
	source fs.FS
	logger *internal.Logger
}

// NewMigrator creates a migrator over the embedded schema files
func NewMigrator(db *sql.DB, logger *internal.Logger) *Migrator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Migrator{db: db, source: embedded, logger: logger.With("migrate")}
}

// MigrationFile represents a migration file
type MigrationFile struct {
	Version string
	Path    string
}

// MigrationStatus reports whether a migration has been applied
type MigrationStatus struct {
	Version string
	Applied bool
}

// Up executes all pending migrations in version order. An applied
// migration whose file has changed since is an error.
func (m *Migrator) Up(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := FindMigrationFiles(m.source)
	if err != nil {
		return fmt.Errorf("failed to find migration files: %w", err)
	}

	for _, file := range files {
		content, err := fs.ReadFile(m.source, file.Path)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Version, err)
		}
		if checksum, ok := applied[file.Version]; ok {
			if checksum != calculateChecksum(content) {
				return fmt.Errorf("migration %s was modified after being applied", file.Version)
			}
			continue
		}

		if err := m.applyMigration(ctx, file.Version, content); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Version, err)
		}
		m.logger.Info("applied migration %s", file.Version)
	}

	return nil
}

// Status lists every known migration and whether it has been applied
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := FindMigrationFiles(m.source)
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}

	status := make([]MigrationStatus, len(files))
	for i, file := range files {
		_, ok := applied[file.Version]
		status[i] = MigrationStatus{Version: file.Version, Applied: ok}
	}
	return status, nil
}

// getAppliedMigrations returns applied versions with their checksums
func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version, checksum FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var version, checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, err
		}
		applied[version] = checksum
	}

	return applied, rows.Err()
}

// calculateChecksum computes SHA256 checksum of migration content
func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// FindMigrationFiles lists NNN_name.sql files in source, sorted by version
func FindMigrationFiles(source fs.FS) ([]MigrationFile, error) {
	var files []MigrationFile

	err := fs.WalkDir(source, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".sql") {
			return nil
		}

		// 001_decoding_runs.sql
		parts := strings.SplitN(path.Base(p), "_", 2)
		if len(parts) < 2 {
			return nil
		}
		files = append(files, MigrationFile{Version: parts[0], Path: p})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})
	return files, nil
}

// applyMigration executes one migration and records it in a transaction
func (m *Migrator) applyMigration(ctx context.Context, version string, content []byte) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)",
		version, calculateChecksum(content))
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
