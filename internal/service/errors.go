package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAutoTasksDisabled = errors.New("automatic reminder tasks are disabled for this lease")
)
