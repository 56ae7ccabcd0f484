package modelstore

import "errors"

// Sentinel kinds for model store errors. Both are reported under
// model.ErrPersistence when they reach a caller.
var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrLayoutMismatch   = errors.New("artifact feature layout mismatch")
)
