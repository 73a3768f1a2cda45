package subject

import "errors"

// Sentinel kinds for subject input errors.
var (
	ErrInputAccess   = errors.New("subject input not accessible")
	ErrInputRowParse = errors.New("malformed subject row")
)
