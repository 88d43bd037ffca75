package core

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var timestampPattern = regexp.MustCompile(`Timestamp: (\d+)`)

// BuildChallenge returns the message a wallet signs to authenticate with appName.
// The millisecond timestamp makes every message unique.
func BuildChallenge(appName string, now time.Time) string {
	return fmt.Sprintf("Sign this message to authenticate with %s.\nTimestamp: %d", appName, now.UnixMilli())
}

// ParseChallengeTimestamp extracts the embedded timestamp from a signed message
func ParseChallengeTimestamp(message string) (time.Time, error) {
	m := timestampPattern.FindStringSubmatch(message)
	if m == nil {
		return time.Time{}, ErrMalformedMessage
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", m[1], ErrMalformedMessage)
	}
	return time.UnixMilli(ms), nil
}

// CheckFreshness rejects timestamps older than window or more than skew ahead of now.
// Instants are compared directly, a Sub of far apart times saturates.
func CheckFreshness(ts, now time.Time, window, skew time.Duration) error {
	if ts.Before(now.Add(-window)) {
		return ErrMessageExpired
	}
	if ts.After(now.Add(skew)) {
		return ErrMessageFromFuture
	}
	return nil
}
