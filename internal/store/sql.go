package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nhle/taskapp/internal/model"
)

// Config selects the database the store opens.
type Config struct {
	// Driver is "sqlite" (modernc.org/sqlite) or "pgx" (PostgreSQL).
	Driver string

	// DSN is a file path or ":memory:" for sqlite, a URL for pgx.
	DSN string

	// Logger receives migration messages. Nil discards them.
	Logger *slog.Logger
}

// SQLStore implements Store on top of sqlx.
type SQLStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to the configured database, applies connection pragmas
// for SQLite and runs any pending schema migrations.
func Open(ctx context.Context, cfg Config) (*SQLStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// A single connection serializes writers and keeps ":memory:"
		// databases alive for the life of the store.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)

		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("applying %q: %w", pragma, err)
			}
		}
	} else if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s db: %w", cfg.Driver, err)
	}

	s := &SQLStore{db: db, logger: logger}
	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	return Open(context.Background(), Config{Driver: "sqlite", DSN: dbPath})
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order, each in its own transaction.
func (s *SQLStore) runMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var currentVersion int
	if err := s.db.GetContext(ctx, &currentVersion,
		"SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration v%d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx,
			tx.Rebind("INSERT INTO schema_version (version) VALUES (?)"), m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", m.version, err)
		}
		s.logger.Info("applied schema migration", "version", m.version)
	}

	return nil
}

// Session returns a session that runs each statement on its own.
func (s *SQLStore) Session() *Session {
	return &Session{q: s.db}
}

// InTx runs fn inside a transaction. The transaction commits if fn
// returns nil and rolls back otherwise.
func (s *SQLStore) InTx(ctx context.Context, fn func(*Session) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Session{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return model.Errorf(model.ErrConflict, "concurrent write conflict, retry the operation")
		}
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Session exposes the read and write capabilities bound to one connection
// or transaction.
type Session struct {
	q sqlx.ExtContext
}

// TagReader returns the tag read capability.
func (s *Session) TagReader() TagReader { return &tagStore{q: s.q} }

// TagWriter returns the tag write capability.
func (s *Session) TagWriter() TagWriter { return &tagStore{q: s.q} }

// AdminTasks returns the unfiltered task reader.
func (s *Session) AdminTasks() AdminTaskReader { return &taskStore{q: s.q} }

// UserTasks returns the creator-filtered task reader.
func (s *Session) UserTasks() UserTaskReader { return &taskStore{q: s.q} }

// TaskWriter returns the task write capability.
func (s *Session) TaskWriter() TaskWriter { return &taskStore{q: s.q} }

// Files returns the attachment descriptor repository.
func (s *Session) Files() FileRepo { return &fileStore{q: s.q} }

// Users returns the user repository.
func (s *Session) Users() UserRepo { return &userStore{q: s.q} }

// isUniqueViolation reports whether err is a unique or primary key
// constraint failure from either supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
