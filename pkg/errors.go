// Package pkg holds helpers shared by every layer.
// This file defines the error taxonomy; callers compare with errors.Is:
//
//	if errors.Is(err, pkg.ErrInvalidCredentials) { ... }
package pkg

import "errors"

// Session and gateway failures surfaced to callers of the session store.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNetworkUnavailable  = errors.New("network unavailable")
	ErrSessionExpired      = errors.New("session expired")
	ErrConcurrentOperation = errors.New("another session operation is in progress")
	ErrAccountLocked       = errors.New("account temporarily locked")
	ErrRateLimited         = errors.New("too many requests")
)

// Domain-level errors. The HTTP layer maps these to status codes.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)
