package api

import (
	"time"

	"github.com/creait/portal/internal/identity"
	"github.com/creait/portal/internal/services"
	"github.com/rs/zerolog"
)

const (
	sessionCookieName = "portal_session"
	contextSubjectKey = "current_subject"

	// Failed pitch-link attempts are limited per token-prefix+IP so a
	// guesser hammering the username gate gets cut off without locking
	// the legitimate recipient out from elsewhere.
	pitchAttemptsLimit  = 10
	pitchAttemptsWindow = 15 * time.Minute

	loginAttemptsLimit  = 10
	loginAttemptsWindow = 15 * time.Minute
)

// Generic client-facing messages. The precise cause never crosses the
// trust boundary; it only goes to the server log.
const (
	messageAuthenticationFailed = "authentication failed"
	messageForbidden            = "forbidden"
	messageAccessDenied         = "access denied"
	messageServiceUnavailable   = "service unavailable"
)

type Handler struct {
	verifier     identity.Verifier
	sessions     *services.SessionService
	pitches      *services.PitchService
	authorizer   *services.Authorizer
	logger       zerolog.Logger
	cookieSecure bool
	loginLimiter *attemptLimiter
	pitchLimiter *attemptLimiter
}

func NewHandler(
	verifier identity.Verifier,
	sessions *services.SessionService,
	pitches *services.PitchService,
	authorizer *services.Authorizer,
	logger zerolog.Logger,
	cookieSecure bool,
) *Handler {
	return &Handler{
		verifier:     verifier,
		sessions:     sessions,
		pitches:      pitches,
		authorizer:   authorizer,
		logger:       logger,
		cookieSecure: cookieSecure,
		loginLimiter: newAttemptLimiter(),
		pitchLimiter: newAttemptLimiter(),
	}
}
