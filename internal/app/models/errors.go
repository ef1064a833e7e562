package models

import "errors"

// Domain specific errors for authentication, authorization and persistence.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
	ErrOTPExpired      = errors.New("verification code expired or not requested")
	ErrOTPMismatch     = errors.New("verification code does not match")
	ErrOTPThrottled    = errors.New("too many verification attempts")
)
