package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the session identity
type AccessClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	PublicKey string `json:"public_key"`
	Role      string `json:"role"`
	RefreshID string `json:"rid,omitempty"` // ID of the refresh record issued alongside
}
