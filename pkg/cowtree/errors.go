package cowtree

import "errors"

// ErrKeyNotFound is returned by Get and Delete when the key is not in the
// tree. It is recoverable and always surfaced to the caller unchanged.
var ErrKeyNotFound = errors.New("key not found")
