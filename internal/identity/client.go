package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultRequestTimeout = 5 * time.Second

// Client talks to the hosted identity provider. It is constructed once at
// process start and injected into every consumer; there is no lazy global
// instance.
type Client struct {
	httpClient  *http.Client
	providerURL string
	tokenSecret []byte
	issuer      string
}

type ClientConfig struct {
	// ProviderURL is the base URL of the provider's account endpoints.
	ProviderURL string
	// TokenSecret is the HMAC secret the provider signs ID tokens with.
	TokenSecret string
	// Issuer is the expected iss claim on provider tokens.
	Issuer string
	// Timeout bounds every provider round trip; zero means the default.
	Timeout time.Duration
}

func NewClient(config ClientConfig) (*Client, error) {
	if strings.TrimSpace(config.ProviderURL) == "" {
		return nil, errors.New("identity provider URL is required")
	}
	if strings.TrimSpace(config.TokenSecret) == "" {
		return nil, errors.New("identity token secret is required")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		providerURL: strings.TrimRight(config.ProviderURL, "/"),
		tokenSecret: []byte(config.TokenSecret),
		issuer:      config.Issuer,
	}, nil
}

type idTokenClaims struct {
	jwt.RegisteredClaims
}

// VerifyIDToken validates a provider-issued identity token locally:
// HMAC signature with the shared secret, expected issuer, and a required
// expiry. The subject comes only from the verified claims.
func (client *Client) VerifyIDToken(_ context.Context, idToken string) (Verified, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Verified{}, ErrInvalidCredential
	}

	claims := &idTokenClaims{}
	parseOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if client.issuer != "" {
		parseOptions = append(parseOptions, jwt.WithIssuer(client.issuer))
	}

	token, err := jwt.ParseWithClaims(idToken, claims, func(*jwt.Token) (interface{}, error) {
		return client.tokenSecret, nil
	}, parseOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Verified{}, ErrExpiredCredential
		}
		return Verified{}, ErrInvalidCredential
	}
	if !token.Valid {
		return Verified{}, ErrInvalidCredential
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Verified{}, ErrInvalidCredential
	}

	return Verified{
		SubjectID:      subject,
		TokenExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

type passwordVerifyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordVerifyResponse struct {
	SubjectID string `json:"subject_id"`
	ExpiresIn int64  `json:"expires_in"`
}

// VerifyPassword checks an email/secret pair with the provider's
// verification endpoint. Timeouts and provider errors map to
// ErrProviderUnavailable so callers fail closed without mistaking an
// outage for a bad credential.
func (client *Client) VerifyPassword(ctx context.Context, email string, secret string) (Verified, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || secret == "" {
		return Verified{}, ErrInvalidCredential
	}

	body, err := json.Marshal(passwordVerifyRequest{Email: email, Password: secret})
	if err != nil {
		return Verified{}, fmt.Errorf("encode password verification request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		client.providerURL+"/v1/accounts:verifyPassword", bytes.NewReader(body))
	if err != nil {
		return Verified{}, fmt.Errorf("build password verification request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return Verified{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusOK:
		// fall through to decode
	case response.StatusCode == http.StatusUnauthorized,
		response.StatusCode == http.StatusBadRequest,
		response.StatusCode == http.StatusNotFound:
		return Verified{}, ErrInvalidCredential
	default:
		return Verified{}, fmt.Errorf("%w: status %d", ErrProviderUnavailable, response.StatusCode)
	}

	var payload passwordVerifyResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return Verified{}, fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}
	subject := strings.TrimSpace(payload.SubjectID)
	if subject == "" {
		return Verified{}, ErrInvalidCredential
	}

	verified := Verified{SubjectID: subject}
	if payload.ExpiresIn > 0 {
		verified.TokenExpiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return verified, nil
}
