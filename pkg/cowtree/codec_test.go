package cowtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeRecordCarriesAddressesNotContent(t *testing.T) {
	s := newTestStore(t)

	leftAddr, err := newNodeRef(&node{
		key: []byte("a"), value: newValueRef([]byte("1")),
		left: nodeRefAt(0), right: nodeRefAt(0), size: 1,
	}).store(s)
	require.NoError(t, err)

	parent := &node{
		key:   []byte("b"),
		value: newValueRef([]byte("2")),
		left:  nodeRefAt(leftAddr),
		right: nodeRefAt(0),
		size:  2,
	}
	addr, err := newNodeRef(parent).store(s)
	require.NoError(t, err)

	payload, err := s.ReadRecord(addr)
	require.NoError(t, err)

	decoded, err := nodeCodec{}.decode(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), decoded.key)
	assert.Equal(t, uint64(2), decoded.size)
	assert.Equal(t, leftAddr, decoded.left.address())
	assert.True(t, decoded.right.absent())
	assert.False(t, decoded.left.loaded, "decoded children must be address-only until dereferenced")

	// The address-only child resolves to the real node on demand.
	child, err := decoded.left.get(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), child.key)

	v, err := decoded.value.get(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestNodeDecodeRejectsMalformedPayloads(t *testing.T) {
	n := &node{
		key:   []byte("some-key"),
		value: newValueRef([]byte("v")),
		left:  nodeRefAt(0),
		right: nodeRefAt(0),
		size:  1,
	}
	s := newTestStore(t)
	_, err := n.value.store(s)
	require.NoError(t, err)

	good, err := nodeCodec{}.encode(n)
	require.NoError(t, err)

	cases := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"short addresses", good[:10]},
		{"truncated varints", good[:nodeAddrsSize]},
		{"key shorter than declared", good[:len(good)-3]},
		{"trailing garbage", append(append([]byte(nil), good...), 0xff)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := nodeCodec{}.decode(tc.payload)
			assert.Error(t, err)
		})
	}
}

func TestPrepareStoreWritesChildrenFirst(t *testing.T) {
	s := newTestStore(t)

	leaf := newNodeRef(&node{
		key: []byte("leaf"), value: newValueRef([]byte("lv")),
		left: nodeRefAt(0), right: nodeRefAt(0), size: 1,
	})
	root := newNodeRef(&node{
		key: []byte("root"), value: newValueRef([]byte("rv")),
		left: leaf, right: nodeRefAt(0), size: 2,
	})

	rootAddr, err := root.store(s)
	require.NoError(t, err)
	assert.Greater(t, rootAddr, leaf.address(),
		"child record must be written before the parent that addresses it")
	assert.NotZero(t, leaf.address())
}

func TestValueCodecRoundTrip(t *testing.T) {
	payload, err := valueCodec{}.encode([]byte("raw bytes \x00\x01"))
	require.NoError(t, err)

	v, err := valueCodec{}.decode(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw bytes \x00\x01"), v)

	require.NoError(t, valueCodec{}.prepareStore(nil, nil))
}
