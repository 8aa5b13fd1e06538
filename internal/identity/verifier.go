package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrExpiredCredential   = errors.New("expired credential")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Verified is the provider's answer for a credential that checked out.
// TokenExpiresAt bounds how long any session built on this verification
// may live; a zero value means the provider set no explicit bound.
type Verified struct {
	SubjectID      string
	TokenExpiresAt time.Time
}

// Verifier validates a presented credential against the identity
// provider. Implementations never invent a subject on partial success:
// either the credential fully verifies or a typed error comes back, and
// callers treat every error as a denial.
type Verifier interface {
	// VerifyIDToken checks a provider-issued identity token.
	VerifyIDToken(ctx context.Context, idToken string) (Verified, error)
	// VerifyPassword checks an email/secret pair with the provider.
	VerifyPassword(ctx context.Context, email string, secret string) (Verified, error)
}
