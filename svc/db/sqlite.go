package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"pastebox/pkg/domain"
)

const (
	circuitClosed   = 0
	circuitOpen     = 1
	circuitHalfOpen = 2
	maxFailures     = 5
	cooldownSeconds = 30
)

const (
	defaultMaxOpenConns = 100
	defaultMaxIdleConns = 10
	defaultQueryTimeout = 5 * time.Second
)

// Store is the persistent paste store. Rows are immutable after
// insert except for view_count, which Get bumps atomically. Safe for
// concurrent use; sqlite serializes writers internally.
type Store struct {
	db            *sql.DB
	failures      int32
	circuitState  int32
	circuitOpened int64
	queryTimeout  time.Duration
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func NewStore(path string) (*Store, error) {
	return NewStoreWithConfig(path, defaultMaxOpenConns, defaultMaxIdleConns, defaultQueryTimeout)
}

func NewStoreWithConfig(path string, maxOpenConns, maxIdleConns int, queryTimeout time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping db")
	}
	s := &Store{
		db:           db,
		queryTimeout: queryTimeout,
	}
	if err := s.migrate(); err != nil {
		return nil, errors.Wrap(err, "migration failed")
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return errors.Wrap(err, "enable WAL mode")
	}
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return errors.Wrap(err, "set busy timeout")
	}
	if _, err := s.db.Exec("PRAGMA synchronous=FULL"); err != nil {
		return errors.Wrap(err, "set synchronous mode")
	}
	query := `
	CREATE TABLE IF NOT EXISTS pastes (
		id TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		content_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		view_count INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *Store) checkCircuit() error {
	switch atomic.LoadInt32(&s.circuitState) {
	case circuitOpen:
		opened := atomic.LoadInt64(&s.circuitOpened)
		if time.Now().Unix()-opened >= cooldownSeconds {
			if atomic.CompareAndSwapInt32(&s.circuitState, circuitOpen, circuitHalfOpen) {
				return nil
			}
		}
		return errors.Wrap(domain.ErrStorageUnavailable, "circuit breaker open")
	default:
		return nil
	}
}

func (s *Store) recordResult(err error) {
	if err == nil {
		atomic.StoreInt32(&s.failures, 0)
		atomic.StoreInt32(&s.circuitState, circuitClosed)
		return
	}
	if errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, domain.ErrDuplicateID) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return
	}
	failures := atomic.AddInt32(&s.failures, 1)
	if atomic.LoadInt32(&s.circuitState) == circuitHalfOpen {
		atomic.StoreInt32(&s.circuitState, circuitOpen)
		atomic.StoreInt64(&s.circuitOpened, time.Now().Unix())
		atomic.StoreInt32(&s.failures, 0)
		return
	}
	if failures >= maxFailures && atomic.LoadInt32(&s.circuitState) == circuitClosed {
		atomic.StoreInt32(&s.circuitState, circuitOpen)
		atomic.StoreInt64(&s.circuitOpened, time.Now().Unix())
	}
}

// Create inserts a new row under the caller-supplied id. A primary key
// collision reports domain.ErrDuplicateID; any other failure reports
// domain.ErrStorageUnavailable.
func (s *Store) Create(ctx context.Context, p *domain.Paste) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	INSERT INTO pastes (id, content, content_type, size, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(queryCtx, q,
		p.ID, p.Content, p.ContentType, p.Size, p.CreatedAt,
	)
	err = classify(err, "db create")
	s.recordResult(err)
	return err
}

// Get returns the row and bumps its view count in one atomic
// statement, so the Nth successful Get observes view_count == N.
func (s *Store) Get(ctx context.Context, id string) (*domain.Paste, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	UPDATE pastes SET view_count = view_count + 1 WHERE id = ?
	RETURNING id, content, content_type, size, created_at, view_count
	`
	var p domain.Paste
	err := s.db.QueryRowContext(queryCtx, q, id).Scan(
		&p.ID, &p.Content, &p.ContentType, &p.Size, &p.CreatedAt, &p.ViewCount,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	err = classify(err, "db get")
	s.recordResult(err)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Touch bumps view_count for id and returns the new value. Used on
// the cache-hit path, where content is already in hand but the
// counter still has to move.
func (s *Store) Touch(ctx context.Context, id string) (int64, error) {
	if err := s.checkCircuit(); err != nil {
		return 0, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `UPDATE pastes SET view_count = view_count + 1 WHERE id = ? RETURNING view_count`
	var views int64
	err := s.db.QueryRowContext(queryCtx, q, id).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	err = classify(err, "db touch")
	s.recordResult(err)
	if err != nil {
		return 0, err
	}
	return views, nil
}

// Peek reads a row without touching its view count.
func (s *Store) Peek(ctx context.Context, id string) (*domain.Paste, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, content, content_type, size, created_at, view_count
	FROM pastes WHERE id = ?
	`
	var p domain.Paste
	err := s.db.QueryRowContext(queryCtx, q, id).Scan(
		&p.ID, &p.Content, &p.ContentType, &p.Size, &p.CreatedAt, &p.ViewCount,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	err = classify(err, "db peek")
	s.recordResult(err)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// classify folds a raw sqlite error into the closed taxonomy while
// keeping the underlying cause in the message.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return errors.Wrapf(domain.ErrDuplicateID, "%s: %v", op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, op)
	}
	return errors.Wrapf(domain.ErrStorageUnavailable, "%s: %v", op, err)
}
