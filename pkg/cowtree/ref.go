package cowtree

import (
	"kennel/pkg/storage"
)

// codec translates a referent to and from its on-disk record payload.
// prepareStore runs before encode during ref.store: it must make everything
// the referent points at durable first, so the encoded payload can carry
// final child addresses.
type codec[T any] interface {
	encode(v T) ([]byte, error)
	decode(payload []byte) (T, error)
	prepareStore(s *storage.Store, v T) error
}

// ref is a lazy, write-once indirection to a referent of type T. A ref is in
// one of four states:
//
//   - absent: no referent, address 0. Denotes an empty child slot or an
//     empty tree. get returns the zero value, never an error.
//   - loaded, unaddressed: fresh from an insert or delete, not yet durable.
//   - addressed, unloaded: decoded from a parent record; loaded on first get.
//   - addressed, loaded: fully resolved; read-only and cacheable forever.
//
// Once assigned, the address never changes and the record behind it is never
// rewritten, so a ref held across later commits keeps denoting the same
// immutable referent.
type ref[T any] struct {
	codec    codec[T]
	referent T
	loaded   bool
	addr     uint64
}

// newRef wraps a freshly built in-memory referent. It has no address until
// the next commit that reaches it.
func newRef[T any](c codec[T], v T) *ref[T] {
	return &ref[T]{codec: c, referent: v, loaded: true}
}

// refAt wraps a storage address without loading it. Address 0 is the absent
// sentinel, so refAt(c, 0) is the canonical empty ref.
func refAt[T any](c codec[T], addr uint64) *ref[T] {
	return &ref[T]{codec: c, addr: addr}
}

// absent reports whether r denotes "no referent at all".
func (r *ref[T]) absent() bool {
	return !r.loaded && r.addr == 0
}

// address returns the assigned storage address, 0 if not yet stored.
func (r *ref[T]) address() uint64 {
	return r.addr
}

// get resolves the referent, reading and decoding it from storage on first
// use. An absent ref yields the zero value with no error so callers can test
// child presence cheaply.
func (r *ref[T]) get(s *storage.Store) (T, error) {
	if r.loaded {
		return r.referent, nil
	}
	var zero T
	if r.addr == 0 {
		return zero, nil
	}

	payload, err := s.ReadRecord(r.addr)
	if err != nil {
		return zero, err
	}
	v, err := r.codec.decode(payload)
	if err != nil {
		return zero, &storage.CorruptionError{Addr: r.addr, Reason: err.Error()}
	}
	r.referent = v
	r.loaded = true
	return v, nil
}

// store makes the referent durable and returns its address. Already-addressed
// refs return their address without touching storage, which is what lets a
// commit skip every shared subtree for free. An absent ref stores nothing and
// returns the 0 sentinel.
func (r *ref[T]) store(s *storage.Store) (uint64, error) {
	if r.addr != 0 {
		return r.addr, nil
	}
	if !r.loaded {
		return 0, nil
	}

	if err := r.codec.prepareStore(s, r.referent); err != nil {
		return 0, err
	}
	payload, err := r.codec.encode(r.referent)
	if err != nil {
		return 0, err
	}
	addr, err := s.Write(payload)
	if err != nil {
		return 0, err
	}
	r.addr = addr
	return addr, nil
}

type (
	nodeRef  = ref[*node]
	valueRef = ref[[]byte]
)

func newNodeRef(n *node) *nodeRef { return newRef[*node](nodeCodec{}, n) }

func nodeRefAt(addr uint64) *nodeRef { return refAt[*node](nodeCodec{}, addr) }

func newValueRef(value []byte) *valueRef { return newRef[[]byte](valueCodec{}, value) }

func valueRefAt(addr uint64) *valueRef { return refAt[[]byte](valueCodec{}, addr) }
