package h2o

import (
	"errors"
	"fmt"
)

// Sentinel kinds for runtime errors.
var (
	ErrUnhealthy        = errors.New("h2o cloud unhealthy")
	ErrEmptyLeaderboard = errors.New("leaderboard has no models")
	ErrModelNotFound    = errors.New("model not found")
)

// APIError is a non-2xx answer from the runtime REST API.
type APIError struct {
	Op     string
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: h2o status %d: %s", e.Op, e.Status, e.Msg)
}
