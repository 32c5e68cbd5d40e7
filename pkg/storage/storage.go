// Package storage implements the kennel database file: a fixed header region
// holding the committed root address, followed by an append-only sequence of
// length-prefixed records. Records are written once and never moved or
// rewritten; a new tree version becomes visible only when the root slot in
// the header is overwritten, which is the single point of publication.
package storage

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"kennel/internal/encoding"
)

// lenPrefixSize is the size of the record length prefix (big-endian uint32).
const lenPrefixSize = 4

// Options configures Open.
type Options struct {
	// LockTimeout bounds how long Lock waits for the advisory lock.
	// Zero means block until the lock is available.
	LockTimeout time.Duration
}

// Store is an append-only record file bound to one path. All methods are safe
// for concurrent use within the process; cross-process exclusion is the
// advisory lock's job.
type Store struct {
	mu   sync.Mutex
	file *os.File
	path string

	// size is the current file length; it defines the address space.
	size int64

	locked      bool
	closed      bool
	lockTimeout time.Duration
}

// Open opens the database file at path, creating it with a fresh header if it
// does not exist.
func Open(path string, opts Options) (*Store, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &Store{
		file:        file,
		path:        path,
		lockTimeout: opts.LockTimeout,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	s.size = info.Size()

	if s.size == 0 {
		if err := s.initHeader(); err != nil {
			file.Close()
			return nil, err
		}
	} else if err := s.checkHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initHeader() error {
	h := header{version: FormatVersion}
	if _, err := s.file.WriteAt(h.encode(), 0); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return err
	}
	s.size = HeaderSize
	return nil
}

// refreshSize re-reads the file length. Callers hold s.mu.
func (s *Store) refreshSize() error {
	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	s.size = info.Size()
	return nil
}

func (s *Store) checkHeader() error {
	buf := make([]byte, HeaderSize)
	n, err := s.file.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return err
	}
	_, err = decodeHeader(buf[:n])
	return err
}

// Path returns the file path this store is bound to.
func (s *Store) Path() string {
	return s.path
}

// Write appends a length-prefixed record and returns its address, the byte
// offset of the length prefix. Existing bytes are never overwritten.
func (s *Store) Write(payload []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return 0, fmt.Errorf("record payload too large: %d bytes", len(payload))
	}

	record := make([]byte, lenPrefixSize+len(payload))
	encoding.PutUint32(record, uint32(len(payload)))
	copy(record[lenPrefixSize:], payload)

	addr := s.size
	if _, err := s.file.WriteAt(record, addr); err != nil {
		return 0, fmt.Errorf("append record: %w", err)
	}
	s.size += int64(len(record))
	return uint64(addr), nil
}

// ReadRecord reads the payload of the record at addr. A bad address or a
// length prefix inconsistent with the file size yields a CorruptionError.
//
// The cached file length only tracks this instance's own appends, so an
// address past it is not necessarily bad: another session may have committed
// since we last looked. The length is re-read from the file before any range
// check fails.
func (s *Store) ReadRecord(addr uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if addr < HeaderSize || addr > math.MaxInt64 {
		return nil, corrupt(addr, "address out of range (file size %d)", s.size)
	}
	if int64(addr)+lenPrefixSize > s.size {
		if err := s.refreshSize(); err != nil {
			return nil, err
		}
		if int64(addr)+lenPrefixSize > s.size {
			return nil, corrupt(addr, "address out of range (file size %d)", s.size)
		}
	}

	prefix := make([]byte, lenPrefixSize)
	if _, err := s.file.ReadAt(prefix, int64(addr)); err != nil {
		return nil, fmt.Errorf("read record prefix: %w", err)
	}
	length, _ := encoding.Uint32(prefix)
	if int64(addr)+lenPrefixSize+int64(length) > s.size {
		if err := s.refreshSize(); err != nil {
			return nil, err
		}
	}
	if int64(addr)+lenPrefixSize+int64(length) > s.size {
		return nil, corrupt(addr, "record length %d exceeds file size %d", length, s.size)
	}

	payload := make([]byte, length)
	if _, err := s.file.ReadAt(payload, int64(addr)+lenPrefixSize); err != nil {
		return nil, fmt.Errorf("read record payload: %w", err)
	}
	return payload, nil
}

// RootAddress reads the committed root address from the header slot. It goes
// to the file every time so a reader observes commits made by other
// processes. 0 means the store has never been committed.
func (s *Store) RootAddress() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	buf := make([]byte, 8)
	if _, err := s.file.ReadAt(buf, offsetRoot); err != nil {
		return 0, fmt.Errorf("read root slot: %w", err)
	}
	root, _ := encoding.Uint64(buf)
	return root, nil
}

// CommitRootAddress publishes addr as the new committed root. All records the
// new root transitively addresses are made durable first, then the header
// slot is overwritten in place and synced. This must be the last step of a
// commit; a crash anywhere before the slot write leaves the old root intact.
func (s *Store) CommitRootAddress(addr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync records: %w", err)
	}
	if _, err := s.file.WriteAt(encoding.AppendUint64(nil, addr), offsetRoot); err != nil {
		return fmt.Errorf("write root slot: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync root slot: %w", err)
	}
	return nil
}

// Lock acquires the exclusive advisory lock on the database file. It returns
// true only when the lock was newly acquired, which tells the caller that its
// in-memory view may be stale and must be refreshed. Repeat calls while the
// lock is held are a no-op returning false. Without a LockTimeout the call
// blocks until the lock is free; with one, expiry returns ErrLockTimeout.
func (s *Store) Lock() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	if s.locked {
		return false, nil
	}

	if s.lockTimeout == 0 {
		if err := lockFileBlocking(s.file); err != nil {
			return false, fmt.Errorf("lock %s: %w", s.path, err)
		}
	} else {
		deadline := time.Now().Add(s.lockTimeout)
		for {
			ok, err := tryLockFile(s.file)
			if err != nil {
				return false, fmt.Errorf("lock %s: %w", s.path, err)
			}
			if ok {
				break
			}
			if time.Now().After(deadline) {
				return false, ErrLockTimeout
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	// Another writer may have appended records while it held the lock;
	// re-read the file length so our appends land at the real end of file.
	if err := s.refreshSize(); err != nil {
		unlockFile(s.file)
		return false, err
	}

	s.locked = true
	return true, nil
}

// Unlock releases the advisory lock if held.
func (s *Store) Unlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.locked {
		return nil
	}
	if err := unlockFile(s.file); err != nil {
		return fmt.Errorf("unlock %s: %w", s.path, err)
	}
	s.locked = false
	return nil
}

// Locked reports whether this store instance holds the advisory lock.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Flush forces buffered writes to durable storage without publishing a root.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.file.Sync()
}

// Close releases the lock if held and closes the file. Further operations
// return ErrClosed, as does a second Close.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.locked {
		if err := unlockFile(s.file); err != nil {
			s.file.Close()
			s.closed = true
			return err
		}
		s.locked = false
	}
	s.closed = true
	return s.file.Close()
}
