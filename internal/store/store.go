package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tpcc-service/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("not found")
	// ErrPoolExhausted is returned when no connection could be acquired in time
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrWorkerPanic is returned when a transaction body panicked
	ErrWorkerPanic = errors.New("transaction worker panicked")
)

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

type Store struct {
	db *sqlx.DB
	// readDB serves ReadTx. On SQLite it opens deferred transactions so
	// readers keep their WAL snapshot while a writer holds the lock.
	readDB         *sqlx.DB
	dialect        dialect
	acquireTimeout time.Duration
}

// NewStore creates a new database store
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	driver, dsn, readDSN, d, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := open(driver, dsn, cfg)
	if err != nil {
		return nil, err
	}

	readDB := db
	if readDSN != dsn {
		if readDB, err = open(driver, readDSN, cfg); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db, readDB: readDB, dialect: d, acquireTimeout: cfg.AcquireTimeout}, nil
}

func open(driver, dsn string, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// parseURL maps a database URL onto a driver name and the DSNs of the write
// and read pools. postgres:// and postgresql:// select lib/pq with one shared
// DSN; sqlite:// and file: select go-sqlite3, where only writers begin immediate.
func parseURL(url string) (driver, dsn, readDSN string, d dialect, err error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres", url, url, dialectPostgres, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		path := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite://"), "file:")
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		readDSN = "file:" + path + sep + "_journal_mode=WAL&_busy_timeout=5000"
		return "sqlite3", readDSN + "&_txlock=immediate", readDSN, dialectSQLite, nil
	}
	return "", "", "", 0, fmt.Errorf("unsupported database url: %q", url)
}

// Close closes the database connections
func (s *Store) Close() error {
	if s.readDB != s.db {
		if err := s.readDB.Close(); err != nil {
			s.db.Close()
			return err
		}
	}
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Timings are the instants a transaction passed through its phases
type Timings struct {
	Start     time.Time
	Begun     time.Time
	Queried   time.Time
	Committed time.Time
}

// Begin is the time spent acquiring a connection and opening the transaction
func (t Timings) Begin() time.Duration { return t.Begun.Sub(t.Start) }

// Query is the time spent in the transaction body
func (t Timings) Query() time.Duration { return t.Queried.Sub(t.Begun) }

// Commit is the time spent committing
func (t Timings) Commit() time.Duration { return t.Committed.Sub(t.Queried) }

// Total is the whole transaction duration
func (t Timings) Total() time.Duration { return t.Committed.Sub(t.Start) }

// ReadTx runs fn in a read-only transaction
func (s *Store) ReadTx(ctx context.Context, fn func(*RdTx) error) (Timings, error) {
	return s.run(ctx, s.readDB, &sql.TxOptions{ReadOnly: true}, func(tx *sqlx.Tx) error {
		return fn(&RdTx{tx: tx})
	})
}

// WriteTx runs fn in a read-write transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
func (s *Store) WriteTx(ctx context.Context, fn func(*WrTx) error) (Timings, error) {
	return s.run(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		lock := ""
		if s.dialect == dialectPostgres {
			lock = " FOR UPDATE"
		}
		return fn(&WrTx{RdTx: RdTx{tx: tx, lock: lock}})
	})
}

func (s *Store) run(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, body func(*sqlx.Tx) error) (t Timings, err error) {
	t.Start = time.Now()

	conn, err := s.acquire(ctx, db)
	if err != nil {
		return t, err
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, opts)
	if err != nil {
		return t, fmt.Errorf("failed to begin transaction: %w", err)
	}
	t.Begun = time.Now()

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
	}()

	if err = body(tx); err != nil {
		_ = tx.Rollback()
		t.Queried = time.Now()
		t.Committed = t.Queried
		return t, err
	}
	t.Queried = time.Now()

	if err = tx.Commit(); err != nil {
		return t, fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.Committed = time.Now()
	return t, nil
}

// acquire takes a connection from the pool, giving up after the acquire timeout
func (s *Store) acquire(ctx context.Context, db *sqlx.DB) (*sqlx.Conn, error) {
	if s.acquireTimeout <= 0 {
		conn, err := db.Connx(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire connection: %w", err)
		}
		return conn, nil
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	conn, err := db.Connx(acqCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrPoolExhausted
		}
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

// DatabaseSize returns the on-disk size of the database in bytes
func (s *Store) DatabaseSize(ctx context.Context) (int64, error) {
	query := "SELECT pg_database_size(current_database())"
	if s.dialect == dialectSQLite {
		query = "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
	}
	var size int64
	if err := s.db.GetContext(ctx, &size, query); err != nil {
		return 0, fmt.Errorf("failed to read database size: %w", err)
	}
	return size, nil
}

// Vacuum reclaims space and refreshes planner statistics after a bulk load
func (s *Store) Vacuum(ctx context.Context) error {
	query := "VACUUM ANALYZE"
	if s.dialect == dialectSQLite {
		query = "VACUUM"
	}
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to vacuum: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
