package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	ErrValidation      = errors.New("validation failed")
	ErrRecordNotFound  = errors.New("record not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrForbidden       = errors.New("not allowed to modify this resource")
	ErrUserNameTaken   = errors.New("user name is already taken")
	ErrExportsDisabled = errors.New("exports are not configured")
)

// ValidationError reports which input field was rejected. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
