package ports

import "github.com/lopushok9/whatbird/core"

// Tokenizer converts between sessions and signed bearer tokens
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)

	// AccessTokenToSession verifies signature, audience and expiry
	AccessTokenToSession(token string) (*core.Session, error)
}
