package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrMissingIntercept = errors.New("intercept not found")
	ErrNoModels         = errors.New("no models to evaluate")
)
