package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrSourceUnavailable     = errors.New("source unavailable")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrPublishFailed         = errors.New("publish failed")
)
