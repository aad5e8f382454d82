package service

import (
	"context"
	"errors"
	"fmt"

	"gleanenglish/internal/validation"
)

var (
	ErrUnauthenticated     = errors.New("authentication required")
	ErrNotFoundOrForbidden = errors.New("not found")
	ErrEmailTaken          = errors.New("email already taken")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSessionInvalid      = errors.New("session invalid")
)

// ValidationError reports malformed input to a service operation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// BackendError reports a failure of the underlying store
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: backend failure: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// fromFieldError converts a validation package error into a ValidationError
func fromFieldError(err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Message: fe.Message}
	}
	return err
}

// Identity is the authenticated caller of a request
type Identity struct {
	UserID string
	Email  string
}

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated caller
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by WithIdentity
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}
