package cowtree

import (
	"bytes"
	"errors"
	"fmt"

	"kennel/internal/encoding"
	"kennel/pkg/storage"
)

// Node record payload layout:
//
//	[u64 BE left address][u64 BE value address][u64 BE right address]
//	[uvarint subtree size][uvarint key length][key bytes]
//
// Addresses are 0 for absent children. The payload carries child addresses,
// never child content, so decoding one record resolves exactly one node and
// leaves its children as address-only refs until they are dereferenced.

const nodeAddrsSize = 3 * 8

var errTruncatedNode = errors.New("truncated node record")

// nodeCodec encodes tree nodes.
type nodeCodec struct{}

func (nodeCodec) encode(n *node) ([]byte, error) {
	buf := make([]byte, 0, nodeAddrsSize+2*encoding.UvarintLen(n.size)+len(n.key))
	buf = encoding.AppendUint64(buf, n.left.address())
	buf = encoding.AppendUint64(buf, n.value.address())
	buf = encoding.AppendUint64(buf, n.right.address())
	buf = encoding.AppendUvarint(buf, n.size)
	buf = encoding.AppendUvarint(buf, uint64(len(n.key)))
	buf = append(buf, n.key...)
	return buf, nil
}

func (nodeCodec) decode(payload []byte) (*node, error) {
	if len(payload) < nodeAddrsSize {
		return nil, errTruncatedNode
	}
	left, _ := encoding.Uint64(payload)
	valueAddr, _ := encoding.Uint64(payload[8:])
	right, _ := encoding.Uint64(payload[16:])
	rest := payload[nodeAddrsSize:]

	size, n := encoding.Uvarint(rest)
	if n == 0 {
		return nil, errTruncatedNode
	}
	rest = rest[n:]

	keyLen, n := encoding.Uvarint(rest)
	if n == 0 {
		return nil, errTruncatedNode
	}
	rest = rest[n:]
	if uint64(len(rest)) != keyLen {
		return nil, fmt.Errorf("node key length %d does not match remaining %d bytes", keyLen, len(rest))
	}

	return &node{
		key:   bytes.Clone(rest),
		value: valueRefAt(valueAddr),
		left:  nodeRefAt(left),
		right: nodeRefAt(right),
		size:  size,
	}, nil
}

// prepareStore makes the node's value and children durable before the node
// itself is encoded, so the record written for it carries final addresses.
func (nodeCodec) prepareStore(s *storage.Store, n *node) error {
	if _, err := n.value.store(s); err != nil {
		return err
	}
	if _, err := n.left.store(s); err != nil {
		return err
	}
	_, err := n.right.store(s)
	return err
}

// valueCodec stores value blobs verbatim; the record framing is the only
// structure they need.
type valueCodec struct{}

func (valueCodec) encode(v []byte) ([]byte, error) {
	return v, nil
}

func (valueCodec) decode(payload []byte) ([]byte, error) {
	return bytes.Clone(payload), nil
}

func (valueCodec) prepareStore(*storage.Store, []byte) error {
	return nil
}
