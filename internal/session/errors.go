package session

import (
	"errors"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
)

var (
	// ErrInvalidCredentials is returned for any username/password mismatch.
	// It never tells whether the username exists.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrLoginFailed is the generic, retryable login failure.
	ErrLoginFailed = errors.New("an error occurred, try again")
	// ErrAlreadySignedIn rejects a login while another user holds the
	// terminal. Logout comes first.
	ErrAlreadySignedIn = errors.New("a user is already signed in")
	// ErrStorage marks a durable-storage read or write failure.
	ErrStorage = errors.New("session storage unavailable")
)

// ValidationError reports a blank username or password.
type ValidationError = apperr.ValidationError
