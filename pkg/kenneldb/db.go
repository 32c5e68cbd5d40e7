// Package kenneldb is the session-level facade over the kennel storage
// engine. A DB wraps one storage.Store and one cowtree.Tree and exposes a
// small dictionary-style surface: Get, Set, Delete, Has, Commit, Close.
//
// Mutations are private to the session until Commit publishes them by
// updating the root pointer; the write lock is taken on the first mutating
// call and held until Close so commit batches from different processes never
// interleave.
package kenneldb

import (
	"errors"
	"sync"
	"time"

	"kennel/pkg/cowtree"
	"kennel/pkg/storage"
)

// Errors surfaced by the facade. They are the engine's own values, re-exported
// so most callers only need this package.
var (
	ErrKeyNotFound = cowtree.ErrKeyNotFound
	ErrClosed      = storage.ErrClosed
	ErrLockTimeout = storage.ErrLockTimeout
	ErrCorrupted   = storage.ErrCorrupted
)

// Options configures Open.
type Options struct {
	// LockTimeout bounds how long the first mutating call waits for the
	// database's write lock. Zero blocks indefinitely.
	LockTimeout time.Duration
}

// DB is an open database session. Methods are safe for concurrent use within
// the process.
type DB struct {
	mu     sync.Mutex
	store  *storage.Store
	tree   *cowtree.Tree
	closed bool
}

// Open opens the database file at path, creating it if absent.
func Open(path string) (*DB, error) {
	return OpenWithOptions(path, Options{})
}

// OpenWithOptions opens a database file with the specified options.
func OpenWithOptions(path string, opts Options) (*DB, error) {
	store, err := storage.Open(path, storage.Options{LockTimeout: opts.LockTimeout})
	if err != nil {
		return nil, err
	}
	return &DB{store: store, tree: cowtree.New(store)}, nil
}

// With opens the database at path, runs fn against it, and closes it on every
// exit path. The close error is reported unless fn already failed.
func With(path string, fn func(*DB) error) error {
	db, err := Open(path)
	if err != nil {
		return err
	}
	err = fn(db)
	if cerr := db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Path returns the file path this session is bound to.
func (db *DB) Path() string {
	return db.store.Path()
}

// Get returns the value bound to key, or ErrKeyNotFound. Sessions that have
// not written see the latest committed snapshot at call time.
func (db *DB) Get(key []byte) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrClosed
	}
	return db.tree.Get(key)
}

// Has reports whether key is present.
func (db *DB) Has(key []byte) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return false, ErrClosed
	}
	return db.tree.Has(key)
}

// Set binds key to value. The binding is invisible to other sessions until
// Commit.
func (db *DB) Set(key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	return db.tree.Set(key, value)
}

// Delete removes key, or returns ErrKeyNotFound.
func (db *DB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	return db.tree.Delete(key)
}

// Len returns the number of keys in the committed-or-pending tree this
// session sees.
func (db *DB) Len() (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return 0, ErrClosed
	}
	n, err := db.tree.Len()
	return int(n), err
}

// Commit makes this session's mutations durable and visible. On failure the
// previously committed state is untouched and Commit may simply be retried.
func (db *DB) Commit() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	return db.tree.Commit()
}

// Close releases the write lock if held and closes the backing file.
// Uncommitted mutations are discarded. Close is idempotent.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	if err := db.store.Close(); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}
