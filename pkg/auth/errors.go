package auth

import "fmt"

const authFailedPrefix = "failed to authenticate"

// AuthFailedError indicates an authentication request failed without user
// interaction being possible or sufficient. It is recoverable per tenant:
// enumeration of the remaining tenants continues.
type AuthFailedError struct {
	innerErr error
}

// NewAuthFailedError wraps err as an authentication failure.
func NewAuthFailedError(err error) error {
	return &AuthFailedError{innerErr: err}
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("%s: %s", authFailedPrefix, e.innerErr.Error())
}

func (e *AuthFailedError) Unwrap() error {
	return e.innerErr
}

// AuthCanceledError indicates the user canceled an interactive
// authentication flow. Recoverable: surfaced as a warning, enumeration
// continues.
type AuthCanceledError struct {
	innerErr error
}

// NewAuthCanceledError wraps err as a canceled authentication.
func NewAuthCanceledError(err error) error {
	return &AuthCanceledError{innerErr: err}
}

func (e *AuthCanceledError) Error() string {
	return fmt.Sprintf("authentication canceled: %s", e.innerErr.Error())
}

func (e *AuthCanceledError) Unwrap() error {
	return e.innerErr
}
