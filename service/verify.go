package service

import (
	"time"

	"github.com/lopushok9/whatbird/core"
)

// Challenge returns a fresh challenge message and the timestamp embedded in it
func (s *AuthService) Challenge() (string, time.Time) {
	now := s.clock.Now()
	return core.BuildChallenge(s.appName, now), now
}

// VerifyCredentials checks the wallet signature and the challenge freshness.
// It returns the canonical public key. Signature failures are reported as
// core.ErrInvalidSignature regardless of which input was wrong.
func (s *AuthService) VerifyCredentials(creds Credentials) (string, error) {
	if creds.PublicKey == "" || creds.Message == "" || len(creds.Signature) == 0 {
		return "", core.ErrMissingFields
	}

	verifier, ok := s.verifiers[creds.Chain]
	if !ok {
		return "", core.ErrUnsupportedChain
	}

	publicKey, err := verifier.VerifySignature(creds.PublicKey, []byte(creds.Message), creds.Signature)
	if err != nil {
		s.logger.Warn("signature verification failed",
			"chain", creds.Chain,
			"public_key", creds.PublicKey,
			"reason", err)
		return "", core.ErrInvalidSignature
	}

	ts, err := core.ParseChallengeTimestamp(creds.Message)
	if err != nil {
		return "", core.ErrMalformedMessage
	}

	now := s.clock.Now()
	if err := core.CheckFreshness(ts, now, s.challengeWindow, s.clockSkew); err != nil {
		s.logger.Info("stale challenge rejected",
			"public_key", publicKey,
			"age", now.Sub(ts).String(),
			"reason", err)
		return "", err
	}

	return publicKey, nil
}
