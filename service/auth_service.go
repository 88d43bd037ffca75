package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/ports"
)

// AuthService handles wallet authentication and session issuance
type AuthService struct {
	tokenizer  ports.Tokenizer
	identities ports.IdentityStore
	refresh    ports.RefreshStore
	eventPub   ports.EventPublisher
	verifiers  map[core.Chain]ports.SignatureVerifier

	clock  ports.Clock
	logger *slog.Logger

	appName         string
	challengeWindow time.Duration
	clockSkew       time.Duration
	accessTTL       time.Duration
	refreshTTL      time.Duration
}

// NewAuthService creates a new authentication service.
// eventPub may be nil when no other instance needs to be notified.
func NewAuthService(
	tokenizer ports.Tokenizer,
	identities ports.IdentityStore,
	refresh ports.RefreshStore,
	eventPub ports.EventPublisher,
	verifiers []ports.SignatureVerifier,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		tokenizer:       tokenizer,
		identities:      identities,
		refresh:         refresh,
		eventPub:        eventPub,
		verifiers:       make(map[core.Chain]ports.SignatureVerifier, len(verifiers)),
		clock:           ports.SystemClock{},
		appName:         DefaultAppName,
		challengeWindow: DefaultChallengeWindow,
		clockSkew:       DefaultClockSkew,
		accessTTL:       DefaultAccessTTL,
		refreshTTL:      DefaultRefreshTTL,
	}
	for _, v := range verifiers {
		s.verifiers[v.Chain()] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return s
}

// AccessTTL returns the access token lifetime
func (s *AuthService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime
func (s *AuthService) RefreshTTL() time.Duration { return s.refreshTTL }

// Login authenticates a wallet from its signed challenge and issues a session
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	publicKey, err := s.VerifyCredentials(creds)
	if err != nil {
		return nil, err
	}

	identity, created, err := s.ResolveIdentity(ctx, creds.Chain, publicKey)
	if err != nil {
		s.logger.Error("identity resolution failed", "public_key", publicKey, "err", err)
		return nil, err
	}

	result, err := s.issue(ctx, identity)
	if err != nil {
		return nil, err
	}
	result.IsNewAccount = created

	if created && s.eventPub != nil {
		if err := s.eventPub.PublishIdentityCreated(ctx, identity); err != nil {
			// The identity is persisted, the event is informational
			s.logger.Warn("failed to publish identity created event", "user_id", identity.UserID, "err", err)
		}
	}

	s.logger.Info("wallet login",
		"chain", creds.Chain,
		"user_id", identity.UserID,
		"new_account", created)

	return result, nil
}

// Refresh consumes a refresh token and issues a new access and refresh token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, core.ErrInvalidRefresh
	}

	record, err := s.refresh.ConsumeRefresh(ctx, hashRefreshToken(refreshToken))
	if errors.Is(err, core.ErrRefreshNotFound) {
		return nil, core.ErrInvalidRefresh
	}
	if err != nil {
		return nil, core.Wrap(core.KindStore, "Failed to refresh session", err)
	}

	if record.Expired(s.clock.Now()) {
		return nil, core.ErrInvalidRefresh
	}

	identity, err := s.identities.FindByID(ctx, record.UserID)
	if errors.Is(err, core.ErrIdentityNotFound) {
		return nil, core.ErrInvalidRefresh
	}
	if err != nil {
		return nil, core.Wrap(core.KindStore, "Failed to refresh session", err)
	}

	return s.issue(ctx, identity)
}

// Logout invalidates the refresh token, if any, and notifies other instances.
// Access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, session *core.Session) error {
	var userID, refreshID string
	if session != nil {
		userID, refreshID = session.UserID, session.RefreshID
	}

	if refreshToken != "" {
		record, err := s.refresh.ConsumeRefresh(ctx, hashRefreshToken(refreshToken))
		switch {
		case err == nil:
			userID, refreshID = record.UserID, record.ID
		case errors.Is(err, core.ErrRefreshNotFound):
			// Already consumed or expired, logout stays idempotent
		default:
			return core.Wrap(core.KindStore, "Failed to logout", err)
		}
	}

	if userID == "" {
		return nil
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogout(ctx, userID, refreshID); err != nil {
			// The refresh record is gone, which is the critical part
			s.logger.Warn("failed to publish logout event", "user_id", userID, "err", err)
		}
	}

	s.logger.Info("logout", "user_id", userID)
	return nil
}

// ValidateAccessToken verifies an access token without a store round-trip
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	if accessToken == "" {
		return nil, core.ErrUnauthenticated
	}
	if s.tokenizer == nil {
		return nil, core.ErrSigningKeyMissing
	}
	return s.tokenizer.AccessTokenToSession(accessToken)
}

// PurgeExpiredRefresh removes expired refresh records from stores that do not
// expire them on their own. It returns 0 for stores with native TTLs.
func (s *AuthService) PurgeExpiredRefresh(ctx context.Context) (int64, error) {
	p, ok := s.refresh.(interface {
		PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	})
	if !ok {
		return 0, nil
	}
	n, err := p.PurgeExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, core.Wrap(core.KindStore, "Failed to purge refresh tokens", err)
	}
	return n, nil
}

// issue mints a refresh record and an access token for identity
func (s *AuthService) issue(ctx context.Context, identity *core.Identity) (*LoginResult, error) {
	if s.tokenizer == nil {
		return nil, core.ErrSigningKeyMissing
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, core.Wrap(core.KindConfig, "Server configuration error", err)
	}

	now := s.clock.Now()
	record := &core.RefreshRecord{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		TokenHash: hashRefreshToken(refreshToken),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.refresh.SaveRefresh(ctx, record); err != nil {
		return nil, core.Wrap(core.KindStore, "Failed to create session", err)
	}

	session := &core.Session{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		Email:     identity.Email,
		PublicKey: identity.PublicKey,
		Role:      core.RoleAuthenticated,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTTL),
		RefreshID: record.ID,
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		if derr := s.refresh.DeleteRefresh(ctx, record.TokenHash); derr != nil {
			s.logger.Error("failed to clean up refresh record", "refresh_id", record.ID, "err", derr)
		}
		return nil, core.Wrap(core.KindConfig, "Server configuration error", fmt.Errorf("sign access token: %w", err))
	}

	return &LoginResult{
		Identity:      identity,
		Session:       session,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		RefreshExpiry: record.ExpiresAt,
	}, nil
}

// generateRefreshToken returns an opaque 32-byte base64url token
func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashRefreshToken returns the hex sha256 of a refresh token, used as its store key
func hashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
