// Package common defines shared constants and sentinel errors used across
// the canteen server and its tools. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorStore         = errors.New("store error")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// ErrorSelfAction is returned when an admin targets their own account
	// with a restricted operation. It wraps ErrorForbidden.
	ErrorSelfAction = fmt.Errorf("%w: operation not allowed on own account", ErrorForbidden)

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
