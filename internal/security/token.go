package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Bearer secrets are 32 random bytes, giving 256 bits of entropy before
// hashing. Only the SHA-256 of a secret is ever persisted or logged.
const tokenByteLength = 32

// NewToken returns a fresh bearer secret as lowercase hex. The caller is
// responsible for handing it out exactly once; it cannot be recovered
// from the stored hash.
func NewToken() (string, error) {
	buffer := make([]byte, tokenByteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("read random token bytes: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}

// HashToken derives the storable one-way digest of a bearer secret.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// HashEqual compares two hex digests in constant time.
func HashEqual(a string, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// TokenPrefix returns the short prefix of a token safe to put in logs so
// humans can correlate entries without exposing the secret.
func TokenPrefix(token string) string {
	const prefixLength = 8
	if len(token) <= prefixLength {
		return token
	}
	return token[:prefixLength]
}
