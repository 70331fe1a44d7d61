package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/config"
)

// Store persists admin credentials, admin sessions, the admin activity log
// and the catalog tables the admin panel moderates. It is the single source
// of truth for session state; nothing is cached in process.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

// sqlx driver names per configured database driver.
var driverNames = map[string]string{
	"sqlite":   "sqlite",
	"postgres": "pgx",
	"mysql":    "mysql",
}

// Open connects to the configured database and applies migrations. For
// sqlite an empty DataDir and DSN opens a private in-memory database.
func Open(cfg config.Database) (*Store, error) {
	driverName, ok := driverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dsn, err := resolveDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	s := &Store{db: db, dialect: dialect(cfg.Driver)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", cfg.Driver, err)
	}
	return s, nil
}

// OpenMemory opens a private in-memory SQLite store. Intended for tests and
// one-shot CLI runs.
func OpenMemory() (*Store, error) {
	return Open(config.Database{Driver: "sqlite"})
}

func resolveDSN(cfg config.Database) (string, error) {
	if cfg.Driver != "sqlite" {
		if cfg.DSN == "" {
			return "", fmt.Errorf("a DSN is required for driver %q", cfg.Driver)
		}
		return cfg.DSN, nil
	}

	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.DataDir == "" {
		return ":memory:?_pragma=foreign_keys(1)", nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(cfg.DataDir, "puzzlr.db") +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the configured driver name (sqlite, postgres or mysql).
func (s *Store) Driver() string {
	return string(s.dialect)
}

// q rewrites '?' placeholders into the driver's bind style.
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// Timestamps are stored as Unix milliseconds so that ordering and range
// comparisons behave identically on every supported driver.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
