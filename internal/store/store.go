package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/meta"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store executes statements for one database and dialect.
type Store struct {
	db       *sql.DB
	dialect  dialect.Dialect
	resolver *meta.Resolver
	logger   *slog.Logger
	ids      IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithResolver shares a metadata resolver with the store.
func WithResolver(r *meta.Resolver) Option {
	return func(s *Store) { s.resolver = r }
}

// WithLogger sets the statement logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open connects to dsn with the driver of d and verifies the connection.
//
// SQLite databases are limited to one connection and get the WAL pragmas.
// This function is idempotent for SQLite files - safe to call multiple times.
func Open(d dialect.Dialect, dsn string, opts ...Option) (*Store, error) {
	dsn, err := normalizeDSN(d, dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if d.Name() == dialect.SQLite {
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return OpenDB(db, d, opts...), nil
}

// OpenDB wraps an existing handle, e.g. one created by sqlmock.
func OpenDB(db *sql.DB, d dialect.Dialect, opts ...Option) *Store {
	s := &Store{db: db, dialect: d}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.resolver == nil {
		s.resolver = meta.NewResolver(meta.WithLogger(s.logger))
	}
	if s.ids == nil {
		s.ids = UUIDv7Generator{}
	}
	return s
}

// normalizeDSN validates dsn for d and rewrites it into the form the driver
// expects.
func normalizeDSN(d dialect.Dialect, dsn string) (string, error) {
	switch d.Name() {
	case dialect.Postgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			kv, err := pq.ParseURL(dsn)
			if err != nil {
				return "", fmt.Errorf("invalid postgres dsn: %w", err)
			}
			return kv, nil
		}
		return dsn, nil
	case dialect.MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		// Scan DATETIME columns into time.Time
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	default:
		if dsn == "" {
			return "", fmt.Errorf("sqlite dsn is empty")
		}
		return dsn, nil
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the statement dialect.
func (s *Store) Dialect() dialect.Dialect { return s.dialect }

// Resolver returns the metadata resolver.
func (s *Store) Resolver() *meta.Resolver { return s.resolver }

// Exec runs st with values bound by parameter name.
func (s *Store) Exec(ctx context.Context, st dialect.Statement, values map[string]any) (sql.Result, error) {
	args, err := s.args(st, values)
	if err != nil {
		return nil, err
	}
	return s.db.ExecContext(ctx, st.SQL, args...)
}

// Query runs st and returns the rows. Callers are responsible for closing them.
func (s *Store) Query(ctx context.Context, st dialect.Statement, values map[string]any) (*sql.Rows, error) {
	args, err := s.args(st, values)
	if err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, st.SQL, args...)
}

// QueryRow runs st expecting at most one row.
func (s *Store) QueryRow(ctx context.Context, st dialect.Statement, values map[string]any) (*sql.Row, error) {
	args, err := s.args(st, values)
	if err != nil {
		return nil, err
	}
	return s.db.QueryRowContext(ctx, st.SQL, args...), nil
}

func (s *Store) args(st dialect.Statement, values map[string]any) ([]any, error) {
	s.logger.Debug("executing statement",
		"dialect", s.dialect.Name(),
		"sql", st.SQL,
		"params", st.Binder.Names())
	args, err := st.Args(values)
	if err != nil {
		return nil, fmt.Errorf("bind %q: %w", st.SQL, err)
	}
	return args, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
