package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrDuplicateApplication = errors.New("duplicate application")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrNotCancellable       = errors.New("application is not cancellable")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrValidation           = errors.New("validation error")
	ErrPersistence          = errors.New("persistence error")
)
