// Package cowtree implements the persistent binary search tree at the heart
// of kennel: immutable nodes reached through lazy, write-once refs, pure
// path-copying algorithms over them, and a coordinator that binds the
// algorithms to a storage.Store with a lock/refresh protocol.
package cowtree

import (
	"bytes"

	"kennel/pkg/storage"
)

// Tree is the logical coordinator for one session. It holds the session's
// view of the latest root ref and decides when that view must be refreshed
// from the committed root address: before every read while the session does
// not hold the write lock, and immediately after the write lock is first
// acquired (another writer may have committed in between).
//
// The write lock is acquired on the first mutating call and held across
// Commit; it is released by Unlock or by closing the store. Holding it
// through the commit keeps a batch of mutations and its publication from
// interleaving with another writer.
type Tree struct {
	store *storage.Store
	root  *nodeRef

	// dirty is set by a successful Set or Delete and cleared by a
	// successful Commit. Only a dirty session has anything to publish.
	dirty bool
}

// New binds a coordinator to store. The root ref starts unresolved; every
// operation refreshes it before first use.
func New(store *storage.Store) *Tree {
	return &Tree{store: store, root: nodeRefAt(0)}
}

// refresh re-resolves the root ref from the committed root address.
func (t *Tree) refresh() error {
	addr, err := t.store.RootAddress()
	if err != nil {
		return err
	}
	t.root = nodeRefAt(addr)
	return nil
}

// Get returns the value bound to key, or ErrKeyNotFound. A session that does
// not hold the write lock sees the latest committed snapshot at call time.
func (t *Tree) Get(key []byte) ([]byte, error) {
	if !t.store.Locked() {
		if err := t.refresh(); err != nil {
			return nil, err
		}
	}
	v, err := search(t.store, t.root, key)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v), nil
}

// Has reports whether key is present.
func (t *Tree) Has(key []byte) (bool, error) {
	_, err := t.Get(key)
	if err == ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Set binds key to value in the in-memory root. The change is invisible to
// other sessions until Commit.
func (t *Tree) Set(key, value []byte) error {
	if err := t.lockForWrite(); err != nil {
		return err
	}
	root, err := insert(t.store, t.root, key, newValueRef(bytes.Clone(value)))
	if err != nil {
		return err
	}
	t.root = root
	t.dirty = true
	return nil
}

// Delete removes key from the in-memory root, or returns ErrKeyNotFound.
func (t *Tree) Delete(key []byte) error {
	if err := t.lockForWrite(); err != nil {
		return err
	}
	root, err := remove(t.store, t.root, key)
	if err != nil {
		return err
	}
	t.root = root
	t.dirty = true
	return nil
}

func (t *Tree) lockForWrite() error {
	acquired, err := t.store.Lock()
	if err != nil {
		return err
	}
	if acquired {
		// First mutating call of the batch: the view may predate another
		// writer's commit.
		return t.refresh()
	}
	return nil
}

// Len returns the number of keys in the tree, read from the root's subtree
// size.
func (t *Tree) Len() (uint64, error) {
	if !t.store.Locked() {
		if err := t.refresh(); err != nil {
			return 0, err
		}
	}
	return subtreeSize(t.store, t.root)
}

// Commit makes the current root durable and publishes it. Storing the root
// ref recursively stores the unaddressed spine, child records strictly before
// the parent records that address them; already-addressed shared subtrees are
// skipped. The root slot update is the last step, so a failure anywhere
// earlier leaves the previously committed tree fully intact, and the caller
// may simply retry.
//
// A session with no pending mutation has nothing to publish and Commit is a
// no-op. Publishing in that state would overwrite the committed root with
// whatever stale or unresolved view this session happens to hold — on a
// fresh session that view is the absent ref, which would erase the database.
func (t *Tree) Commit() error {
	if !t.dirty {
		return nil
	}
	addr, err := t.root.store(t.store)
	if err != nil {
		return err
	}
	if err := t.store.CommitRootAddress(addr); err != nil {
		return err
	}
	t.dirty = false
	return nil
}
