package service

import "errors"

// Service errors.
var (
	ErrNoRuntime          = errors.New("no modeling runtime configured")
	ErrNoExplainer        = errors.New("no playbook client configured")
	ErrRuntimeUnavailable = errors.New("modeling runtime unavailable")
	ErrEmptyLeaderboard   = errors.New("leaderboard is empty")
	ErrNoExport           = errors.New("no export has completed yet")
	ErrModelNotFound      = errors.New("model not on leaderboard")
)
