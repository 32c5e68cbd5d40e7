// Package encoding holds the low-level binary helpers shared by the record
// codec and the file header: a SQLite-style variable-length integer plus
// fixed-width big-endian readers and writers.
package encoding

import (
	"encoding/binary"
	"math"
)

// AppendUvarint appends v to buf as a variable-length integer and returns the
// extended buffer. Each byte carries 7 bits of payload, high bit set when more
// bytes follow, most significant group first.
func AppendUvarint(buf []byte, v uint64) []byte {
	if v <= 0x7f {
		return append(buf, byte(v))
	}
	n := UvarintLen(v)
	for i := n - 1; i >= 0; i-- {
		b := byte(v >> (uint(i) * 7) & 0x7f)
		if i > 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// Uvarint decodes a variable-length integer from buf. It returns the value
// and the number of bytes consumed; n == 0 means buf was truncated or the
// encoding does not fit in 64 bits.
func Uvarint(buf []byte) (uint64, int) {
	var v uint64
	for n := 0; n < len(buf) && n < 10; n++ {
		b := buf[n]
		if v > math.MaxUint64>>7 {
			return 0, 0
		}
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, n + 1
		}
	}
	return 0, 0
}

// UvarintLen returns the number of bytes AppendUvarint will use for v.
func UvarintLen(v uint64) int {
	n := 1
	for v > 0x7f {
		n++
		v >>= 7
	}
	return n
}

// AppendUint64 appends v as 8 big-endian bytes.
func AppendUint64(buf []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, v)
}

// Uint64 reads 8 big-endian bytes from buf. ok is false if buf is too short.
func Uint64(buf []byte) (v uint64, ok bool) {
	if len(buf) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(buf), true
}

// PutUint32 writes v into buf[0:4] big-endian. buf must hold at least 4 bytes.
func PutUint32(buf []byte, v uint32) {
	binary.BigEndian.PutUint32(buf, v)
}

// Uint32 reads 4 big-endian bytes from buf. ok is false if buf is too short.
func Uint32(buf []byte) (v uint32, ok bool) {
	if len(buf) < 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(buf), true
}
