package aes

import "errors"

// ErrInvalidLength is returned when a block, key, or IV does not have one of
// the lengths this package accepts.
var ErrInvalidLength = errors.New("aes: invalid length")
