package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Config holds PostgreSQL connection and pool settings.
type Config struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string

	// MaxConns bounds the pool; checkout beyond it blocks up to
	// AcquireTimeout instead of failing immediately.
	MaxConns       int32
	MinConns       int32
	AcquireTimeout time.Duration
	DialTimeout    time.Duration
}

// DSN renders the config as a key=value conninfo string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode)
}

// OpenPostgres connects to PostgreSQL through a bounded pgx pool and returns
// a Store over it.
func OpenPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "host", cfg.Host, "port", cfg.Port, "dbname", cfg.Database)

	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.ConnConfig.RuntimeParams["application_name"] = "equipment-tracker"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.PingContext(dialCtx); err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "max_conns", cfg.MaxConns)
	return &Store{
		db:             db,
		schema:         SchemaPostgres,
		acquireTimeout: cfg.AcquireTimeout,
		closeFns:       []func(){pool.Close},
	}, nil
}

// OpenSQLite opens an SQLite database with the production-safe pragmas.
// Used by the in-memory test backend and local smoke runs.
func OpenSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	return &Store{db: db, schema: SchemaSQLite}, nil
}

// OpenTestStore opens an in-memory SQLite store with the schema applied.
// MaxOpenConns(1) keeps every query on the same in-memory database (each
// connection to ":memory:" would otherwise get its own). Closed via t.Cleanup.
func OpenTestStore(t testing.TB) *Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("store.OpenTestStore: %v", err)
	}
	s.db.SetMaxOpenConns(1)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("store.OpenTestStore schema: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
