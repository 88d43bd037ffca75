package whatbird

import (
	"crypto/ed25519"
	"encoding/json"
	"time"

	"github.com/lopushok9/whatbird/core"
)

// SignatureBytes is encoded as an array of byte values, the shape browser wallets send
type SignatureBytes []byte

func (s SignatureBytes) MarshalJSON() ([]byte, error) {
	values := make([]int, len(s))
	for i, b := range s {
		values[i] = int(b)
	}
	return json.Marshal(values)
}

// SignInRequest is the body of POST /api/solana-auth
type SignInRequest struct {
	PublicKey string         `json:"publicKey"`
	Message   string         `json:"message"`
	Signature SignatureBytes `json:"signature"`
}

// NewSignInRequest builds the challenge for appName at now and signs it with key
func NewSignInRequest(key ed25519.PrivateKey, appName string, now time.Time) SignInRequest {
	message := core.BuildChallenge(appName, now)
	return SignInRequest{
		PublicKey: PublicKey(key),
		Message:   message,
		Signature: ed25519.Sign(key, []byte(message)),
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// User is the public view of an identity
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	PublicKey string `json:"public_key"`
}

// LoginResponse is returned by login and refresh
type LoginResponse struct {
	Message      string `json:"message"`
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	IsNewAccount bool   `json:"is_new_account"`
}

// MeResponse describes the session carried by the access token
type MeResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	PublicKey string    `json:"public_key"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
