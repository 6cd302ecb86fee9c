// Package database provides database setup, models, and the write-side data access layer (Store).
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/statsbot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// sqlitePragmas are applied to every pooled connection through the modernc DSN.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
}

// NewDB opens the SQLite chat log, applies migrations and returns the connection pool.
// dbPath is a plain file path or a "file:" URI.
func NewDB(dbPath string, maxOpenConns int) (*sqlx.DB, error) {
	if dbPath == "" {
		return nil, errors.New("database path is empty")
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 1
	}

	db, err := sqlx.Connect("sqlite", BuildDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// WAL lets readers run next to the single writer; busy_timeout serializes writers.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := ApplyMigrations(db.DB, ExtractDBNameFromPath(dbPath)); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Database connected and migrations applied successfully", "path", dbPath, "max_open_conns", maxOpenConns)
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	} else {
		slog.Info("Database connection closed successfully.")
	}
}

// ApplyMigrations runs the embedded schema migrations against db.
func ApplyMigrations(db *sql.DB, dbName string) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}
	if dbName == "" {
		return errors.New("database name/path for migration driver is empty")
	}

	slog.Info("Applying database migrations...", "database_name", dbName)

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: dbName})
	if err != nil {
		return fmt.Errorf("failed to create sqlite database driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Database migrations applied successfully.")
	return nil
}

// BuildDSN turns a database path into a modernc DSN carrying the connection pragmas.
// Pragmas already present in the path are kept.
func BuildDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	params := url.Values{}
	for _, p := range sqlitePragmas {
		params.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + sep + params.Encode()
}

// ExtractDBNameFromPath extracts the database file path from a possibly URL-formatted path.
func ExtractDBNameFromPath(path string) string {
	path = strings.TrimPrefix(path, "file:")

	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if decoded, err := url.PathUnescape(path); err == nil {
		return decoded
	}

	return path
}
