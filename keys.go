package whatbird

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// ParseSolanaKey reads a Solana keypair either as a base58 string or as the JSON
// byte array written by solana-keygen. Both hold the 64-byte ed25519 private key.
func ParseSolanaKey(s string) (ed25519.PrivateKey, error) {
	s = strings.TrimSpace(s)

	var raw []byte
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		raw = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: value %d at index %d", ErrInvalidKey, v, i)
			}
			raw[i] = byte(v)
		}
	} else {
		decoded, err := base58.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		raw = decoded
	}

	switch len(raw) {
	case ed25519.PrivateKeySize:
		key := ed25519.PrivateKey(raw)
		// The trailing half must be the public key of the seed
		if !key.Public().(ed25519.PublicKey).Equal(ed25519.NewKeyFromSeed(key.Seed()).Public()) {
			return nil, fmt.Errorf("%w: public half does not match the seed", ErrInvalidKey)
		}
		return key, nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	default:
		return nil, fmt.Errorf("%w: expected %d or %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, ed25519.SeedSize, len(raw))
	}
}

// PublicKey returns the base58 address of key
func PublicKey(key ed25519.PrivateKey) string {
	return base58.Encode(key.Public().(ed25519.PublicKey))
}
