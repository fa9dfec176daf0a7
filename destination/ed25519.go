package destination

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// ed25519Signer implements Signer using stdlib Ed25519. The I2P wire form
// uses the 32-byte seed as the "private key", matching Go's
// ed25519.NewKeyFromSeed convention.
type ed25519Signer struct{}

func (ed25519Signer) Sign(private, data []byte) ([]byte, error) {
	if len(private) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519: private key must be %d bytes, got %d", ed25519.SeedSize, len(private))
	}
	key := ed25519.NewKeyFromSeed(private)
	return ed25519.Sign(key, data), nil
}

func (ed25519Signer) Verify(public, data, sig []byte) bool {
	if len(public) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(public), data, sig)
}

func (ed25519Signer) Generate() (public, private []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("ed25519 generate: %w", err)
	}
	// priv is seed||pub (64 bytes); the wire form wants just the 32-byte seed.
	return []byte(pub), priv.Seed(), nil
}
