package database

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("record already exists")
)

// IsNotFound reports whether err (or its cause) is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
