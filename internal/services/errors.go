package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these onto HTTP status codes with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// kindError carries a client-facing message and wraps one of the kinds above.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrUserNotFound      = newError(ErrNotFound, "User not found")
	ErrProfileNotFound   = newError(ErrNotFound, "Role profile not found")
	ErrRecipeNotFound    = newError(ErrNotFound, "Recipe not found")
	ErrEventNotFound     = newError(ErrNotFound, "Event not found")
	ErrReportNotFound    = newError(ErrNotFound, "Report not found")
	ErrMessageNotFound   = newError(ErrNotFound, "Message not found")
	ErrEmailNotFound     = newError(ErrNotFound, "No account with that email")
	ErrNoFavouritesStore = newError(ErrNotFound, "This role has no favourites")

	ErrEmailExists    = newError(ErrConflict, "Email already registered")
	ErrRoleInfoExists = newError(ErrConflict, "Role information already created")
	ErrAlreadyInvited = newError(ErrConflict, "User is already invited or attending")

	ErrNotOwner             = newError(ErrForbidden, "You can only change your own content")
	ErrNotVerified          = newError(ErrForbidden, "Please verify your email first")
	ErrInvalidModeratorCode = newError(ErrForbidden, "Invalid moderator sign-up code")
	ErrModeratorProtected   = newError(ErrForbidden, "Moderator accounts cannot be deleted this way")

	ErrInvalidCredentials = newError(ErrInvalidInput, "Invalid credentials")
	ErrInvalidCode        = newError(ErrInvalidInput, "Invalid or expired verification code")
	ErrInvalidResetToken  = newError(ErrInvalidInput, "Invalid or expired reset token")
	ErrWrongPassword      = newError(ErrInvalidInput, "Incorrect password")
	ErrNotInvited         = newError(ErrInvalidInput, "You have not been invited to this event")
	ErrInvalidImage       = newError(ErrInvalidInput, "Invalid image file")

	ErrInvalidSession = newError(ErrUnauthenticated, "Invalid or expired session")
)

// ValidationError reports a single bad input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalidField(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// FieldErrors is a set of field validation failures from a request's
// Validate method.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e))
}

func (e FieldErrors) Unwrap() error { return ErrInvalidInput }

// checkFields turns a Validate result into an error, or nil when empty.
func checkFields(errs map[string]string) error {
	if len(errs) == 0 {
		return nil
	}
	return FieldErrors(errs)
}

// AlreadyRatedError is returned when a user rates a recipe a second time.
type AlreadyRatedError struct {
	PreviousRating int
}

func (e *AlreadyRatedError) Error() string {
	return fmt.Sprintf("You have already rated this recipe (%d)", e.PreviousRating)
}

func (e *AlreadyRatedError) Unwrap() error { return ErrConflict }
