package repository

import "errors"

// ErrCorrupt is returned when a persisted artifact cannot be decoded.
var ErrCorrupt = errors.New("artifact is corrupt")
