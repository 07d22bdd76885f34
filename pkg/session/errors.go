package session

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an operation needs a principal and
// nobody is signed in.
var ErrUnauthenticated = errors.New("not signed in")

// ErrorKind classifies identity provider failures
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindWrongCredentials
	KindUnknownAccount
	KindRateLimited
	KindNetwork
	KindAccountExists
	KindWeakPassword
	KindAccountDisabled
	KindSessionExpired
	KindInvalidInput
)

// IdentityError is a classified sign-in, sign-up or token failure
type IdentityError struct {
	Kind ErrorKind
	// Code is the provider's raw error code, e.g. EMAIL_NOT_FOUND
	Code string
	Err  error
}

// Message returns text suitable for showing to the user
func (e *IdentityError) Message() string {
	switch e.Kind {
	case KindWrongCredentials:
		return "Incorrect email or password."
	case KindUnknownAccount:
		return "No account exists for this email."
	case KindRateLimited:
		return "Too many attempts. Try again later."
	case KindNetwork:
		return "Could not reach the sign-in service. Check your connection."
	case KindAccountExists:
		return "An account already exists for this email."
	case KindWeakPassword:
		return "Password should be at least 6 characters."
	case KindAccountDisabled:
		return "This account has been disabled."
	case KindSessionExpired:
		return "Your session has expired. Please sign in again."
	case KindInvalidInput:
		return "Enter a valid email address and password."
	}
	if e.Code != "" {
		return fmt.Sprintf("Sign-in failed (%s).", e.Code)
	}
	return "Sign-in failed."
}

func (e *IdentityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message(), e.Err)
	}
	return e.Message()
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

// AsIdentityError wraps unclassified provider errors so callers always get
// an *IdentityError back from the gate.
func AsIdentityError(err error) *IdentityError {
	var ierr *IdentityError
	if errors.As(err, &ierr) {
		return ierr
	}
	return &IdentityError{Kind: KindUnknown, Err: err}
}
