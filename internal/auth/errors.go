package auth

import "errors"

// Terminal, user-facing outcomes. Unknown email and wrong password map to the
// same error so responses never reveal whether an account exists. The same
// merging applies to wrong, expired and exhausted codes.
var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrDuplicateEmail         = errors.New("an account with this email already exists")
	ErrInvalidOrExpiredCode   = errors.New("invalid or expired code")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired token")
	ErrNotFound               = errors.New("account not found")
	ErrTwoFactorNotConfigured = errors.New("two-factor authentication is not configured")
	ErrEmailNotVerified       = errors.New("email address is not verified")

	// ErrChallengeDeliveryFailed means a challenge code was generated but the
	// delivery collaborator could not send it. Callers may retry issuance.
	ErrChallengeDeliveryFailed = errors.New("could not deliver challenge code")

	ErrSessionExpired = errors.New("session token expired")
	ErrSessionInvalid = errors.New("session token invalid")
)
