package cli

import "errors"

// ErrMissingInput is returned when no subject file is named.
var ErrMissingInput = errors.New("missing subject FILE argument")
