package tokenizer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/ports"
)

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs
type JWTTokenizer struct {
	secret []byte
	clock  ports.Clock
	leeway time.Duration
	parser *jwt.Parser
}

// Option configures a JWTTokenizer
type Option func(*JWTTokenizer)

// WithLeeway tolerates clock drift of d between the issuing and the verifying host
// when checking iat and exp
func WithLeeway(d time.Duration) Option {
	return func(j *JWTTokenizer) {
		if d > 0 {
			j.leeway = d
		}
	}
}

// NewJWTTokenizer creates a tokenizer signing with secret.
// An empty secret is a configuration error.
func NewJWTTokenizer(secret []byte, clock ports.Clock, opts ...Option) (ports.Tokenizer, error) {
	if len(secret) == 0 {
		return nil, core.ErrSigningKeyMissing
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	j := &JWTTokenizer{
		secret: secret,
		clock:  clock,
	}
	for _, opt := range opts {
		opt(j)
	}

	j.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(core.RoleAuthenticated),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(j.leeway),
		jwt.WithTimeFunc(clock.Now),
	)
	return j, nil
}

// SessionToAccessToken converts a Session to a signed access token
func (j *JWTTokenizer) SessionToAccessToken(session *core.Session) (string, error) {
	role := session.Role
	if role == "" {
		role = core.RoleAuthenticated
	}

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			Audience:  jwt.ClaimStrings{core.RoleAuthenticated},
		},
		Email:     session.Email,
		PublicKey: session.PublicKey,
		Role:      role,
		RefreshID: session.RefreshID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// AccessTokenToSession parses an access token and returns the associated session
func (j *JWTTokenizer) AccessTokenToSession(tokenStr string) (*core.Session, error) {
	token, err := j.parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", core.ErrInvalidToken)
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing subject or issued-at", core.ErrInvalidToken)
	}

	return &core.Session{
		ID:        claims.ID,
		UserID:    claims.Subject,
		Email:     claims.Email,
		PublicKey: claims.PublicKey,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		RefreshID: claims.RefreshID,
	}, nil
}
