package services

import (
	"github.com/pkg/errors"
)

// Error kinds. Handlers map them to status codes with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a message that is safe to show to API callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

var (
	ErrProductNotFound    = &Error{Kind: ErrNotFound, Message: "Product not found"}
	ErrDuplicateBarcode   = &Error{Kind: ErrConflict, Message: "Barcode already exists"}
	ErrDuplicateAdmin     = &Error{Kind: ErrConflict, Message: "Admin already exists"}
	ErrInvalidCredentials = &Error{Kind: ErrUnauthorized, Message: "Invalid email or password"}
	ErrInvalidCode        = &Error{Kind: ErrUnauthorized, Message: "Invalid code"}
	ErrCodeExpired        = &Error{Kind: ErrUnauthorized, Message: "Code expired"}
)

func validationError(err error) error {
	return &Error{Kind: ErrValidation, Message: err.Error()}
}

// PublicMessage returns the caller facing text of err, or "" for store
// and other internal failures.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
