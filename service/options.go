package service

import (
	"log/slog"
	"time"

	"github.com/lopushok9/whatbird/ports"
)

const (
	DefaultAppName         = "What Bird"
	DefaultChallengeWindow = 5 * time.Minute
	DefaultClockSkew       = 30 * time.Second
	DefaultAccessTTL       = time.Hour
	DefaultRefreshTTL      = 7 * 24 * time.Hour
)

// Option configures the AuthService
type Option func(*AuthService)

// WithLogger sets the structured logger.
// If not set, a JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *AuthService) { s.logger = logger }
}

// WithClock overrides the time source
func WithClock(clock ports.Clock) Option {
	return func(s *AuthService) { s.clock = clock }
}

// WithAppName sets the application name embedded in challenges
func WithAppName(name string) Option {
	return func(s *AuthService) { s.appName = name }
}

// WithChallengeWindow sets how old a signed challenge may be
func WithChallengeWindow(d time.Duration) Option {
	return func(s *AuthService) { s.challengeWindow = d }
}

// WithClockSkew sets how far in the future a challenge timestamp may be
func WithClockSkew(d time.Duration) Option {
	return func(s *AuthService) { s.clockSkew = d }
}

// WithAccessTTL sets the access token lifetime
func WithAccessTTL(d time.Duration) Option {
	return func(s *AuthService) { s.accessTTL = d }
}

// WithRefreshTTL sets the refresh token lifetime
func WithRefreshTTL(d time.Duration) Option {
	return func(s *AuthService) { s.refreshTTL = d }
}
