package coefficient

import "errors"

// Sentinel kinds for coefficient table errors.
var (
	ErrResourceParse = errors.New("malformed coefficient resource")
	ErrDuplicateKey  = errors.New("duplicate probe identifier")
)
