package store

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned by multi-step operations when a referenced
	// row does not exist. Single-row getters return (nil, nil) instead.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the item lifecycle does not allow the move.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrItemInOpenPickup means the item already belongs to an unresolved pickup.
	ErrItemInOpenPickup = errors.New("item already linked to an open pickup")

	// ErrAlreadyResponded means the vendor already answered the pickup.
	ErrAlreadyResponded = errors.New("pickup already has a vendor response")

	// ErrDuplicate means a unique column such as an email is already taken.
	ErrDuplicate = errors.New("already exists")
)

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
