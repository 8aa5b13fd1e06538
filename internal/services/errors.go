package services

import "errors"

// Internal failure taxonomy. Handlers log the precise cause and collapse
// everything credential-shaped into one generic response so callers
// cannot enumerate accounts, tokens, or gates.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAuthorizationDenied  = errors.New("authorization denied")
	ErrNotProvisioned       = errors.New("subject is not provisioned")

	ErrTokenInvalid         = errors.New("pitch token invalid")
	ErrTokenExpired         = errors.New("pitch token expired")
	ErrTokenRevoked         = errors.New("pitch token revoked")
	ErrUsernameGateMismatch = errors.New("pitch username gate mismatch")

	ErrAccessNotFound   = errors.New("pitch access not found")
	ErrExtendNotForward = errors.New("expiry can only move forward")
)
