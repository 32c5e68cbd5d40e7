package storage

import "kennel/internal/encoding"

const (
	// HeaderSize is the size of the fixed header region at offset 0.
	// Addresses below HeaderSize can never identify a record, which is why
	// 0 works as the "absent" sentinel.
	HeaderSize = 32

	// Magic identifies a kennel database file. Exactly 16 bytes.
	Magic = "Kennel format 1\x00"

	// FormatVersion is the on-disk format version written by this code.
	FormatVersion = 1
)

// Header field offsets.
const (
	offsetMagic   = 0  // 16 bytes: magic string
	offsetVersion = 16 // 4 bytes: format version, big-endian
	offsetRoot    = 20 // 8 bytes: committed root address, big-endian (0 = empty)
	// 28..32 reserved
)

// header is the decoded form of the fixed header region.
type header struct {
	version uint32
	root    uint64
}

func (h header) encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[offsetMagic:], Magic)
	encoding.PutUint32(buf[offsetVersion:], h.version)
	copy(buf[offsetRoot:], encoding.AppendUint64(nil, h.root))
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < HeaderSize {
		return header{}, corrupt(0, "header truncated: %d bytes", len(buf))
	}
	if string(buf[offsetMagic:offsetMagic+len(Magic)]) != Magic {
		return header{}, corrupt(0, "bad magic: not a kennel database")
	}
	version, _ := encoding.Uint32(buf[offsetVersion:])
	if version != FormatVersion {
		return header{}, corrupt(0, "unsupported format version %d", version)
	}
	root, _ := encoding.Uint64(buf[offsetRoot:])
	return header{version: version, root: root}, nil
}
