// Package signature implements wallet signature verification for the supported chains.
package signature

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/ports"
)

// Solana verifies Ed25519 detached signatures against base58 encoded public keys
type Solana struct{}

// NewSolana creates a Solana verifier
func NewSolana() ports.SignatureVerifier {
	return Solana{}
}

// Chain returns core.ChainSolana
func (Solana) Chain() core.Chain { return core.ChainSolana }

// VerifySignature verifies signature over message with the base58 public key.
// All failures wrap core.ErrInvalidSignature; the wrapping text is for logs only.
func (Solana) VerifySignature(publicKey string, message, signature []byte) (string, error) {
	keyBytes, err := base58.Decode(publicKey)
	if err != nil {
		return "", fmt.Errorf("decode public key: %v: %w", err, core.ErrInvalidSignature)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return "", fmt.Errorf("public key must be %d bytes, got %d: %w", ed25519.PublicKeySize, len(keyBytes), core.ErrInvalidSignature)
	}
	if len(signature) != ed25519.SignatureSize {
		return "", fmt.Errorf("signature must be %d bytes, got %d: %w", ed25519.SignatureSize, len(signature), core.ErrInvalidSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(keyBytes), message, signature) {
		return "", fmt.Errorf("ed25519 verification failed: %w", core.ErrInvalidSignature)
	}

	return base58.Encode(keyBytes), nil
}
