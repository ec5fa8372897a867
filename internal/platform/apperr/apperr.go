// Package apperr holds the error taxonomy shared by the clinic domains and
// its mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrNotFound: the referenced id does not exist in the expected collection.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOperation: the caller tried to mutate something immutable.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidReference: an id was selected that resolves to no item.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrStorage: a repository read or write failed.
	ErrStorage = errors.New("storage unavailable")
)

// ValidationError reports bad user input for one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid is shorthand for a *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Storage annotates a repository error with op. Anything that is not
// already ErrNotFound or ErrStorage is marked as ErrStorage so handlers
// answer with a retryable 503.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// ToHTTP converts a domain error into an echo.HTTPError. Errors outside the
// taxonomy become a generic 500 so internal details do not leak.
func ToHTTP(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{"field": ve.Field, "message": ve.Message})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidOperation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidReference):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStorage):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable, try again")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
