package common

import "errors"

// Sentinel errors shared by repositories, services and the HTTP layer.
// Callers should match them with errors.Is.
var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorValidation         = errors.New("validation error")
	ErrorEmailTaken         = errors.New("email already in use")
	ErrorReferralCodeTaken  = errors.New("referral code already in use")
	ErrorUnauthenticated    = errors.New("unauthenticated")
	ErrorInvalidCredentials = errors.New("invalid email or password")
	ErrorAccountInactive    = errors.New("account is inactive")
	ErrorForbidden          = errors.New("forbidden")
	ErrorTooManyRequests    = errors.New("too many requests")

	// Pool errors.
	ErrorPoolExhausted = errors.New("database connection pool exhausted")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
