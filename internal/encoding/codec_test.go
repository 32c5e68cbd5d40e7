package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 255, 16383, 16384,
		1<<21 - 1, 1 << 21, 1 << 35, 1<<64 - 1,
	}
	for _, v := range values {
		buf := AppendUvarint(nil, v)
		require.Len(t, buf, UvarintLen(v), "value %d", v)

		got, n := Uvarint(buf)
		require.Equal(t, len(buf), n, "value %d", v)
		assert.Equal(t, v, got)
	}
}

func TestUvarintTruncated(t *testing.T) {
	buf := AppendUvarint(nil, 1<<35)
	_, n := Uvarint(buf[:len(buf)-1])
	assert.Zero(t, n)

	_, n = Uvarint(nil)
	assert.Zero(t, n)
}

func TestUvarintRejectsOverflow(t *testing.T) {
	// Ten bytes encoding 2^70-1: more than 64 bits of payload.
	overflow := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}
	_, n := Uvarint(overflow)
	assert.Zero(t, n)

	// The maximum value itself still decodes.
	buf := AppendUvarint(nil, 1<<64-1)
	v, n := Uvarint(buf)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, uint64(1<<64-1), v)
}

func TestUvarintConsumesTrailingBytes(t *testing.T) {
	buf := AppendUvarint(nil, 300)
	buf = append(buf, 0xde, 0xad)

	v, n := Uvarint(buf)
	assert.Equal(t, uint64(300), v)
	assert.Equal(t, 2, n)
}

func TestFixedWidth(t *testing.T) {
	buf := AppendUint64(nil, 0xdeadbeefcafe)
	require.Len(t, buf, 8)
	v, ok := Uint64(buf)
	require.True(t, ok)
	assert.Equal(t, uint64(0xdeadbeefcafe), v)

	_, ok = Uint64(buf[:7])
	assert.False(t, ok)

	b4 := make([]byte, 4)
	PutUint32(b4, 0x01020304)
	u, ok := Uint32(b4)
	require.True(t, ok)
	assert.Equal(t, uint32(0x01020304), u)

	_, ok = Uint32(b4[:3])
	assert.False(t, ok)
}
