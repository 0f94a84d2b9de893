package artifactstore

import "errors"

// Sentinel kinds for artifact store errors.
var (
	ErrTargetExists  = errors.New("rename target already exists")
	ErrInvalidName   = errors.New("invalid artifact name")
	ErrMissingSource = errors.New("artifact source missing")
)
