package detector

import "errors"

// ErrMissingComponent is returned by New when a required component is nil.
var ErrMissingComponent = errors.New("detector component is missing")
