package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/query"
)

// Options configures a Store. Zero fields take defaults.
type Options struct {
	// SchemaVersion is the version the caller expects. Zero means
	// CurrentSchemaVersion.
	SchemaVersion int

	Clock  Clock
	IDs    IDGenerator
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.SchemaVersion == 0 {
		o.SchemaVersion = CurrentSchemaVersion
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.IDs == nil {
		o.IDs = UUIDGenerator{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Store is an open contacts database.
// Safe for concurrent use; writes are serialized by SQLite.
type Store struct {
	db      *sql.DB
	path    string
	version int

	clock    Clock
	ids      IDGenerator
	logger   *slog.Logger
	compiler *query.SQLCompiler

	// gen counts committed writes.
	gen atomic.Uint64
}

// Open creates or opens the SQLite database at path and brings its schema to
// opts.SchemaVersion.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, classify("open", fmt.Errorf("open database: %w", err))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classify("open", fmt.Errorf("connect to database: %w", err))
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, classify("open", fmt.Errorf("apply pragmas: %w", err))
	}

	if err := migrate(ctx, db, opts.SchemaVersion, opts.Logger); err != nil {
		db.Close()
		return nil, classify("open", err)
	}

	opts.Logger.Debug("store opened", "path", path, "version", opts.SchemaVersion)

	return &Store{
		db:       db,
		path:     path,
		version:  opts.SchemaVersion,
		clock:    opts.Clock,
		ids:      opts.IDs,
		logger:   opts.Logger,
		compiler: contactsCompiler(opts.SchemaVersion),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Version returns the schema version the store was opened at.
func (s *Store) Version() int {
	return s.version
}

// Generation returns a counter that changes after every committed write.
// Two reads that observe the same generation saw the same data.
func (s *Store) Generation() uint64 {
	return s.gen.Load()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// withTx runs fn in a transaction named op.
//
// A done context aborts before BeginTx. After that the transaction ignores
// cancellation and runs to commit or rollback.
func (s *Store) withTx(ctx context.Context, op string, write bool, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if s == nil || s.db == nil {
		panic("store: " + op + " on nil store")
	}
	if err := ctx.Err(); err != nil {
		return contact.E(contact.Timeout, op, err)
	}
	txCtx := context.WithoutCancel(ctx)

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		return classify(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(txCtx, tx); err != nil {
		return classify(op, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(op, fmt.Errorf("commit: %w", err))
	}
	if write {
		s.gen.Add(1)
	}
	return nil
}

// userVersion reads PRAGMA user_version.
func userVersion(ctx context.Context, q querier) (int, error) {
	var version int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SchemaVersion reads the version stamped in the database file.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	v, err := userVersion(ctx, s.db)
	if err != nil {
		return 0, classify("schema version", err)
	}
	return v, nil
}
