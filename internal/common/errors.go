// Package common defines shared constants and sentinel errors used across
// the privacykit client core and the reference backend. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Envelope/cipher errors. ErrKeyUnavailable and ErrNothingToEncrypt are
	// expected pre-login/no-op states rather than failures; the rest are
	// fail-closed conditions.
	ErrKeyUnavailable       = errors.New("encryption key unavailable")
	ErrNothingToEncrypt     = errors.New("nothing to encrypt")
	ErrIntegrityCheckFailed = errors.New("integrity check failed")
	ErrUnknownAlgorithm     = errors.New("unknown encryption algorithm")
	ErrMalformedEnvelope    = errors.New("malformed envelope")

	// Salt synchronization errors.
	ErrSaltConflict = errors.New("encryption salt already set")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
