package cowtree

// node is one immutable tree node. Nodes are never modified after
// construction: any change to a subtree rebuilds the nodes on the path to the
// change and shares everything else, so every previously committed root keeps
// addressing a self-consistent snapshot.
//
// Invariants: every key reachable through left compares strictly less than
// key, every key through right strictly greater, and size is exactly
// 1 + size(left) + size(right) with absent subtrees counting 0.
type node struct {
	key   []byte
	value *ref[[]byte]
	left  *ref[*node]
	right *ref[*node]
	size  uint64
}
