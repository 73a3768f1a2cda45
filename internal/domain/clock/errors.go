package clock

import "errors"

// Sentinel kinds for model catalogue errors.
var (
	ErrUnknownModel = errors.New("unknown model")
)
