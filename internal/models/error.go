package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Credential errors
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrTemporarilyBanned = errors.New("user is temporarily banned")
	ErrNotConfigured     = errors.New("feature not configured")
)

// BanError reports a login rejected by the throttle
type BanError struct {
	RetryAfter int // Whole seconds until the ban expires
}

func (e *BanError) Error() string {
	return fmt.Sprintf("User is temporarily banned. Try again in %d seconds.", e.RetryAfter)
}

func (e *BanError) Unwrap() error {
	return ErrTemporarilyBanned
}

// FieldError reports an input field that failed a business rule
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrBadRequest
}
