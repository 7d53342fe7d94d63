package models

import "errors"

// Domain errors shared by the managers. Handlers translate these into HTTP
// statuses; the managers themselves never surface transient I/O errors.
var (
	ErrNotFound = errors.New("record not found")

	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
	ErrSlugTaken     = errors.New("slug already exists")

	ErrInvalidRole = errors.New("invalid role")

	// ErrStorage means the backing collection could not be written; the
	// operation did not take effect.
	ErrStorage = errors.New("storage failure")
)

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrSlugTaken)
}
