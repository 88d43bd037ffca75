package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/lopushok9/whatbird/core"
)

// SignatureBytes decodes either a JSON array of byte values, as sent by
// browser wallets, or a 0x-prefixed hex string.
type SignatureBytes []byte

func (s *SignatureBytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		if text == "" {
			*s = nil
			return nil
		}
		decoded, err := hexutil.Decode(text)
		if err != nil {
			return fmt.Errorf("signature: %w", err)
		}
		*s = decoded
		return nil
	}

	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return errors.New("signature: expected an array of bytes or a hex string")
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("signature: value %d at index %d is not a byte", v, i)
		}
		out[i] = byte(v)
	}
	*s = out
	return nil
}

// MarshalJSON encodes the signature as an array of byte values
func (s SignatureBytes) MarshalJSON() ([]byte, error) {
	values := make([]int, len(s))
	for i, b := range s {
		values[i] = int(b)
	}
	return json.Marshal(values)
}

// SignInRequest is the body of the wallet login endpoints
type SignInRequest struct {
	PublicKey string         `json:"publicKey"`
	Message   string         `json:"message"`
	Signature SignatureBytes `json:"signature"`
}

// RefreshRequest carries a refresh token when the cookie is not available
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProfileRequest is the body of the profile update endpoint
type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse is the public view of an identity
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	PublicKey string `json:"public_key"`
}

func newUserResponse(identity *core.Identity) UserResponse {
	return UserResponse{
		ID:        identity.UserID,
		Name:      identity.DisplayName,
		Email:     identity.Email,
		PublicKey: identity.PublicKey,
	}
}

// LoginResponse is returned by the login and refresh endpoints
type LoginResponse struct {
	Message      string       `json:"message"`
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	IsNewAccount bool         `json:"is_new_account"`
}

// ChallengeResponse is a server built challenge for clients that do not build their own
type ChallengeResponse struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ProfileResponse is the stored identity of the caller
type ProfileResponse struct {
	User      UserResponse `json:"user"`
	Chain     core.Chain   `json:"chain"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// MeResponse describes the session carried by the access token
type MeResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	PublicKey string    `json:"public_key"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
