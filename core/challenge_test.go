package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChallenge(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	msg := BuildChallenge("What Bird", now)
	assert.Equal(t, "Sign this message to authenticate with What Bird.\nTimestamp: 1700000000000", msg)

	ts, err := ParseChallengeTimestamp(msg)
	require.NoError(t, err)
	assert.True(t, ts.Equal(now))
}

func TestParseChallengeTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    int64
		wantErr bool
	}{
		{name: "embedded", message: "hello\nTimestamp: 42", want: 42},
		{name: "first match wins", message: "Timestamp: 1 Timestamp: 2", want: 1},
		{name: "missing", message: "Sign this message", wantErr: true},
		{name: "no digits", message: "Timestamp: abc", wantErr: true},
		{name: "overflow", message: "Timestamp: 99999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := ParseChallengeTimestamp(tt.message)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedMessage))
				assert.Equal(t, KindValidation, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts.UnixMilli())
		})
	}
}

func TestCheckFreshness(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	window := 5 * time.Minute
	skew := 30 * time.Second

	assert.NoError(t, CheckFreshness(now.Add(-2*time.Minute), now, window, skew))
	assert.NoError(t, CheckFreshness(now.Add(-window), now, window, skew))
	assert.NoError(t, CheckFreshness(now.Add(10*time.Second), now, window, skew))

	assert.ErrorIs(t, CheckFreshness(now.Add(-10*time.Minute), now, window, skew), ErrMessageExpired)
	assert.ErrorIs(t, CheckFreshness(now.Add(-window-time.Millisecond), now, window, skew), ErrMessageExpired)
	assert.ErrorIs(t, CheckFreshness(now.Add(time.Minute), now, window, skew), ErrMessageFromFuture)
	assert.ErrorIs(t, CheckFreshness(now.Add(skew+time.Millisecond), now, window, skew), ErrMessageFromFuture)
	assert.NoError(t, CheckFreshness(now.Add(skew), now, window, skew))
}

func TestCheckFreshnessFarApart(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	window := 5 * time.Minute
	skew := 30 * time.Second

	farFuture := time.UnixMilli(math.MaxInt64)
	assert.ErrorIs(t, CheckFreshness(farFuture, now, window, skew), ErrMessageFromFuture)
	assert.ErrorIs(t, CheckFreshness(now.AddDate(500, 0, 0), now, window, skew), ErrMessageFromFuture)
	assert.ErrorIs(t, CheckFreshness(farFuture, now.AddDate(100, 0, 0), window, skew), ErrMessageFromFuture)

	assert.ErrorIs(t, CheckFreshness(time.UnixMilli(0), now, window, skew), ErrMessageExpired)
	assert.ErrorIs(t, CheckFreshness(now, time.UnixMilli(math.MaxInt64), window, skew), ErrMessageExpired)

	ts, err := ParseChallengeTimestamp("Sign this message to authenticate with What Bird.\nTimestamp: 9223372036854775807")
	require.NoError(t, err)
	assert.ErrorIs(t, CheckFreshness(ts, now, window, skew), ErrMessageFromFuture)
}

func TestNewIdentity(t *testing.T) {
	now := time.Now()
	id := NewIdentity("user-1", ChainSolana, "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU", now)

	assert.Equal(t, "Solana User 7xKXtg...gAsU", id.DisplayName)
	assert.Equal(t, "7xkxtg2cw87d97txjsdpbd5jbkhetqa83tzrujosgasu@solana.wallet", id.Email)
	assert.Equal(t, ChainSolana, id.Chain)
	assert.Equal(t, now, id.CreatedAt)
}

func TestTruncateKey(t *testing.T) {
	assert.Equal(t, "short", TruncateKey("short"))
	assert.Equal(t, "0123456789", TruncateKey("0123456789"))
	assert.Equal(t, "012345...789a", TruncateKey("0123456789a"))
}

func TestKindOf(t *testing.T) {
	wrapped := Wrap(KindStore, "Failed to create profile", errors.New("connection refused"))
	assert.Equal(t, KindStore, KindOf(wrapped))
	assert.Equal(t, "Failed to create profile", PublicMessage(wrapped))
	assert.Contains(t, wrapped.Error(), "connection refused")

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("plain")))
}
