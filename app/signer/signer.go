// Package signer wraps the process-wide ed25519 signing key. The key is a
// constructor dependency loaded once at startup; it is never mutated and
// never leaves this package.
package signer

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mohdfarhan01/ACADVault/app/apperror"
)

type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// New builds a Signer from a 32-byte ed25519 seed.
func New(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// NewFromEnv decodes a base64 seed, typically from SIGNING_KEY.
func NewFromEnv(encoded string) (*Signer, error) {
	if encoded == "" {
		return nil, apperror.SigningUnavailable()
	}
	seed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding signing key: %w", err)
	}
	return New(seed)
}

func (s *Signer) Sign(canonical []byte) ([]byte, error) {
	if s == nil || s.priv == nil {
		return nil, apperror.SigningUnavailable()
	}
	return ed25519.Sign(s.priv, canonical), nil
}

// Verify checks a signature over canonical bytes. ed25519.Verify performs a
// constant-time comparison internally.
func (s *Signer) Verify(canonical, sig []byte) bool {
	if s == nil || s.pub == nil {
		return false
	}
	return ed25519.Verify(s.pub, canonical, sig)
}
