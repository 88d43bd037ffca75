package service

import (
	"time"

	"github.com/lopushok9/whatbird/core"
)

// Credentials is a signed challenge submitted by a wallet
type Credentials struct {
	Chain     core.Chain
	PublicKey string
	Message   string
	Signature []byte
}

// LoginResult is what the session issuer hands back to the transport layer
type LoginResult struct {
	Identity      *core.Identity
	Session       *core.Session
	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	IsNewAccount  bool
}
