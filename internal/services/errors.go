package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these to
// HTTP status codes; everything else surfaces as an internal error.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrRideFull          = errors.New("ride is full")
	ErrRideUnavailable   = errors.New("ride is no longer available")
	ErrInvalidTransition = errors.New("invalid ride state transition")
)
