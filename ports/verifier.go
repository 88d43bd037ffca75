package ports

import "github.com/lopushok9/whatbird/core"

// SignatureVerifier checks detached wallet signatures for one chain
type SignatureVerifier interface {
	Chain() core.Chain

	// VerifySignature returns the canonical form of publicKey when signature
	// was produced over message by the holder of publicKey.
	VerifySignature(publicKey string, message, signature []byte) (string, error)
}
