package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound               = errors.New("resource not found")
	ErrValidation             = errors.New("validation failed")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrDuplicateEntry         = errors.New("duplicate entry")
	ErrInvalidCredentials     = errors.New("invalid credentials")
)

// Not-found errors per entity. All of them match ErrNotFound.
var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrTicketNotFound   = fmt.Errorf("ticket %w", ErrNotFound)
	ErrNoticeNotFound   = fmt.Errorf("notice %w", ErrNotFound)
	ErrLectureNotFound  = fmt.Errorf("lecture %w", ErrNotFound)
	ErrSyllabusNotFound = fmt.Errorf("syllabus %w", ErrNotFound)
	ErrLocationNotFound = fmt.Errorf("location %w", ErrNotFound)
	ErrQRCodeNotFound   = fmt.Errorf("qr code %w", ErrNotFound)
)

// Ticket errors
var (
	ErrTicketNumberExhausted = errors.New("could not allocate a unique ticket number")
)

// Validationf returns an error wrapping ErrValidation with a message
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
