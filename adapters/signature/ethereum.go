package signature

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/ports"
)

// Ethereum verifies EIP-191 personal_sign signatures against a hex address
type Ethereum struct{}

// NewEthereum creates an Ethereum verifier
func NewEthereum() ports.SignatureVerifier {
	return Ethereum{}
}

// Chain returns core.ChainEthereum
func (Ethereum) Chain() core.Chain { return core.ChainEthereum }

// VerifySignature recovers the signer of message and compares it with address.
// The returned key is the EIP-55 checksummed address.
func (Ethereum) VerifySignature(address string, message, signature []byte) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("malformed address %q: %w", address, core.ErrInvalidSignature)
	}
	if len(signature) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d: %w", crypto.SignatureLength, len(signature), core.ErrInvalidSignature)
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	// Wallets emit v as 27/28, SigToPub expects 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", fmt.Errorf("invalid recovery id %d: %w", signature[crypto.RecoveryIDOffset], core.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %v: %w", err, core.ErrInvalidSignature)
	}

	expected := common.HexToAddress(address)
	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != expected {
		return "", fmt.Errorf("recovered %s, expected %s: %w", recovered.Hex(), expected.Hex(), core.ErrInvalidSignature)
	}

	return expected.Hex(), nil
}
