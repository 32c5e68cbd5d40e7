package cowtree

import (
	"bytes"

	"kennel/pkg/storage"
)

// Pure path-copying algorithms. None of these mutate an existing node: every
// change rebuilds the nodes on the search path as fresh, unaddressed refs and
// hands back a new subtree root, while untouched sibling subtrees keep their
// original ref objects and therefore their original addresses.

// search descends from root comparing key bytewise and returns the matching
// value, or ErrKeyNotFound when the descent runs off an absent ref.
func search(s *storage.Store, root *nodeRef, key []byte) ([]byte, error) {
	n, err := root.get(s)
	if err != nil {
		return nil, err
	}
	for n != nil {
		switch cmp := bytes.Compare(key, n.key); {
		case cmp == 0:
			return n.value.get(s)
		case cmp < 0:
			n, err = n.left.get(s)
		default:
			n, err = n.right.get(s)
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, ErrKeyNotFound
}

// insert returns a new subtree root with key bound to value. An equal key
// replaces only the value ref, leaving both child refs shared; node count is
// unchanged in that case.
func insert(s *storage.Store, root *nodeRef, key []byte, value *valueRef) (*nodeRef, error) {
	n, err := root.get(s)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return newNodeRef(&node{
			key:   bytes.Clone(key),
			value: value,
			left:  nodeRefAt(0),
			right: nodeRefAt(0),
			size:  1,
		}), nil
	}

	switch cmp := bytes.Compare(key, n.key); {
	case cmp == 0:
		return newNodeRef(&node{
			key:   n.key,
			value: value,
			left:  n.left,
			right: n.right,
			size:  n.size,
		}), nil
	case cmp < 0:
		left, err := insert(s, n.left, key, value)
		if err != nil {
			return nil, err
		}
		return makeNode(s, n.key, n.value, left, n.right)
	default:
		right, err := insert(s, n.right, key, value)
		if err != nil {
			return nil, err
		}
		return makeNode(s, n.key, n.value, n.left, right)
	}
}

// remove returns a new subtree root without key, or ErrKeyNotFound. A node
// with two children is replaced by its in-order successor, the leftmost node
// of the right subtree.
func remove(s *storage.Store, root *nodeRef, key []byte) (*nodeRef, error) {
	n, err := root.get(s)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrKeyNotFound
	}

	switch cmp := bytes.Compare(key, n.key); {
	case cmp < 0:
		left, err := remove(s, n.left, key)
		if err != nil {
			return nil, err
		}
		return makeNode(s, n.key, n.value, left, n.right)
	case cmp > 0:
		right, err := remove(s, n.right, key)
		if err != nil {
			return nil, err
		}
		return makeNode(s, n.key, n.value, n.left, right)
	}

	left, err := n.left.get(s)
	if err != nil {
		return nil, err
	}
	right, err := n.right.get(s)
	if err != nil {
		return nil, err
	}
	switch {
	case left == nil && right == nil:
		return nodeRefAt(0), nil
	case left == nil:
		// Promote the only child's ref as-is, address included.
		return n.right, nil
	case right == nil:
		return n.left, nil
	}

	succ, err := findMin(s, right)
	if err != nil {
		return nil, err
	}
	newRight, err := removeMin(s, n.right)
	if err != nil {
		return nil, err
	}
	return makeNode(s, succ.key, succ.value, n.left, newRight)
}

// findMin walks left children until none remain and returns the minimal node
// of the subtree rooted at n.
func findMin(s *storage.Store, n *node) (*node, error) {
	for {
		left, err := n.left.get(s)
		if err != nil {
			return nil, err
		}
		if left == nil {
			return n, nil
		}
		n = left
	}
}

// removeMin removes the leftmost node of a non-empty subtree, rebuilding the
// spine from the removal point back up, exactly like remove does on a search
// path.
func removeMin(s *storage.Store, root *nodeRef) (*nodeRef, error) {
	n, err := root.get(s)
	if err != nil {
		return nil, err
	}
	left, err := n.left.get(s)
	if err != nil {
		return nil, err
	}
	if left == nil {
		return n.right, nil
	}

	newLeft, err := removeMin(s, n.left)
	if err != nil {
		return nil, err
	}
	return makeNode(s, n.key, n.value, newLeft, n.right)
}

// makeNode builds a fresh node over the given refs with its size recomputed
// from its actual children. Sizes are always recomputed at every rebuilt
// level; carrying a stale count forward drifts under repeated two-child
// deletions.
func makeNode(s *storage.Store, key []byte, value *valueRef, left, right *nodeRef) (*nodeRef, error) {
	ls, err := subtreeSize(s, left)
	if err != nil {
		return nil, err
	}
	rs, err := subtreeSize(s, right)
	if err != nil {
		return nil, err
	}
	return newNodeRef(&node{
		key:   key,
		value: value,
		left:  left,
		right: right,
		size:  1 + ls + rs,
	}), nil
}

// subtreeSize returns the number of keys under ref, 0 for an absent subtree.
func subtreeSize(s *storage.Store, r *nodeRef) (uint64, error) {
	n, err := r.get(s)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, nil
	}
	return n.size, nil
}
