package destination

import (
	"crypto/rand"
	"fmt"
)

// LocalDestination pairs a Destination (public identity) with the private
// signing key needed to prove ownership of it. This is what a client holds
// after GENERATE / key-file loading; only the Destination half is ever sent
// to peers.
type LocalDestination struct {
	Destination
	PrivateSigningKey []byte // length == SigType.PrivateKeyLen()
}

// Generate creates a fresh LocalDestination of the given signature type. The
// 256-byte crypto-key region is filled with random bytes: this
// implementation targets the modern destination form where that field is
// unused padding rather than a live ElGamal key.
func Generate(sigType SigType) (*LocalDestination, error) {
	signer, err := SignerFor(sigType)
	if err != nil {
		return nil, err
	}
	pub, priv, err := signer.Generate()
	if err != nil {
		return nil, fmt.Errorf("destination: generate: %w", err)
	}

	cryptoPub := make([]byte, cryptoKeyLen)
	if _, err := rand.Read(cryptoPub); err != nil {
		return nil, fmt.Errorf("destination: generate: %w", err)
	}

	return &LocalDestination{
		Destination: Destination{
			SigType:          sigType,
			CryptoPublicKey:  cryptoPub,
			SigningPublicKey: pub,
		},
		PrivateSigningKey: priv,
	}, nil
}

// Sign produces a detached signature over data using the local private key.
func (l *LocalDestination) Sign(data []byte) ([]byte, error) {
	signer, err := SignerFor(l.SigType)
	if err != nil {
		return nil, err
	}
	return signer.Sign(l.PrivateSigningKey, data)
}

// PrivateKeyBytes serializes the full private-key blob as SAM's key-file
// format expects it: destination bytes, a 256-byte legacy ElGamal private
// key region (unused, zero-filled), followed by the signing private key.
func (l *LocalDestination) PrivateKeyBytes() ([]byte, error) {
	destBytes, err := l.Destination.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(destBytes)+256+len(l.PrivateSigningKey))
	out = append(out, destBytes...)
	out = append(out, make([]byte, 256)...)
	out = append(out, l.PrivateSigningKey...)
	return out, nil
}

// ParsePrivateKeyBytes decodes a LocalDestination from the key-file blob
// produced by PrivateKeyBytes.
func ParsePrivateKeyBytes(data []byte) (*LocalDestination, error) {
	d, n, err := Parse(data)
	if err != nil {
		return nil, err
	}
	rest := data[n:]
	if len(rest) < 256 {
		return nil, fmt.Errorf("destination: private key blob truncated")
	}
	privLen := d.SigType.PrivateKeyLen()
	rest = rest[256:]
	if len(rest) < privLen {
		return nil, fmt.Errorf("destination: private signing key truncated: want %d got %d", privLen, len(rest))
	}
	return &LocalDestination{
		Destination:       *d,
		PrivateSigningKey: append([]byte(nil), rest[:privLen]...),
	}, nil
}
