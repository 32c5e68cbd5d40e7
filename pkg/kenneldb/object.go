package kenneldb

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// PutObject encodes v as msgpack and stores it under key. The engine itself
// only ever sees the opaque blob; the encoding is purely a convenience layer
// above it.
func (db *DB) PutObject(key []byte, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value for key %q: %w", key, err)
	}
	return db.Set(key, data)
}

// GetObject loads the blob stored under key and decodes it into out, which
// must be a pointer. Missing keys surface ErrKeyNotFound unchanged.
func (db *DB) GetObject(key []byte, out any) error {
	data, err := db.Get(key)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode value for key %q: %w", key, err)
	}
	return nil
}
