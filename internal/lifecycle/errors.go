package lifecycle

import (
	"errors"
	"fmt"

	"github.com/erazemk/odpad/internal/imaging"
	"github.com/erazemk/odpad/internal/store"
)

// Error kinds returned by the managers. Callers match them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
}

func forbidden(action string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, action)
}

// classify maps store and imaging errors onto the lifecycle error kinds and
// adds op as context. Unknown errors pass through wrapped.
func classify(op string, err error) error {
	var kind error
	switch {
	case errors.Is(err, store.ErrNotFound):
		kind = ErrNotFound
	case errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, imaging.ErrUnsupported),
		errors.Is(err, imaging.ErrTooLarge):
		kind = ErrValidation
	case errors.Is(err, store.ErrItemInOpenPickup),
		errors.Is(err, store.ErrAlreadyResponded):
		kind = ErrConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
