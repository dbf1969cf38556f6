package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"deltae/internal/config"
)

const (
	writeAttempts  = 5
	writeBackoff   = 10 * time.Millisecond
	maxBackoff     = 200 * time.Millisecond
	lockPollPeriod = 25 * time.Millisecond
	lockTimeout    = 5 * time.Second
)

// ErrLocked is returned when another process holds the history lock for
// longer than the lock timeout.
var ErrLocked = errors.New("history database is locked by another process")

// Store persists completed runs in SQLite. Writers serialize on a lock file
// next to the database so concurrent deltae processes never interleave a
// run's rows.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open opens the history database configured in cfg, creating it if needed.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath(), cfg.HistoryLockPath())
}

// OpenPath opens the database at dbPath guarded by the lock file at lockPath.
func OpenPath(dbPath, lockPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: dbPath, lock: flock.New(lockPath)}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying handle for maintenance and tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// write runs fn under the writer lock, retrying while SQLite reports the
// database busy.
func (s *Store) write(ctx context.Context, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	backoff := writeBackoff
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !isBusy(err) || attempt == writeAttempts {
			return err
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(2*backoff, maxBackoff)
	}
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	ok, err := s.lock.TryLockContext(lockCtx, lockPollPeriod)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil && !errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("acquire history lock: %w", err)
	case err != nil || !ok:
		return nil, fmt.Errorf("%w (%s)", ErrLocked, s.lock.Path())
	}
	return func() { _ = s.lock.Unlock() }, nil
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
