package destination

import (
	"crypto/sha256"
	"fmt"

	"github.com/go-i2p/go-i2p-client/i2penc"
)

const (
	certNull = 0
	certKey  = 5

	cryptoKeyLen = 256 // fixed-size "crypto public key" region; unused padding in the modern form
)

// Destination is a long-lived I2P identity: a packed byte blob carrying an
// (unused) crypto-key region, a variable-length signing public key, and a
// certificate identifying the signature algorithm.
type Destination struct {
	SigType          SigType
	CryptoPublicKey  []byte // exactly cryptoKeyLen bytes, random padding
	SigningPublicKey []byte // length == SigType.PublicKeyLen()
}

// ByteLength returns the on-wire length of d: crypto_len + pad + signing_len
// + 3 for the certificate header (+4 more for the KEY certificate's type footer).
func (d *Destination) ByteLength() int {
	pad := padLength(d.SigType)
	n := cryptoKeyLen + pad + len(d.SigningPublicKey) + 3
	if !d.SigType.IsNullCert() {
		n += 4
	}
	return n
}

func padLength(t SigType) int {
	pubLen := t.PublicKeyLen()
	capped := pubLen
	if capped > 128 {
		capped = 128
	}
	return 384 - cryptoKeyLen - capped
}

// Bytes serializes d to its canonical byte form.
func (d *Destination) Bytes() ([]byte, error) {
	if len(d.CryptoPublicKey) != cryptoKeyLen {
		return nil, fmt.Errorf("destination: crypto public key must be %d bytes, got %d", cryptoKeyLen, len(d.CryptoPublicKey))
	}
	if len(d.SigningPublicKey) != d.SigType.PublicKeyLen() {
		return nil, fmt.Errorf("destination: signing public key must be %d bytes for %s, got %d",
			d.SigType.PublicKeyLen(), d.SigType, len(d.SigningPublicKey))
	}

	pad := padLength(d.SigType)
	inlineSigLen := len(d.SigningPublicKey)
	if inlineSigLen > 128 {
		inlineSigLen = 128
	}

	out := make([]byte, 0, d.ByteLength())
	out = append(out, d.CryptoPublicKey...)
	out = append(out, make([]byte, pad)...)
	out = append(out, d.SigningPublicKey[:inlineSigLen]...)

	if d.SigType.IsNullCert() {
		out = append(out, certNull, 0, 0)
		return out, nil
	}

	sigRemainder := d.SigningPublicKey[inlineSigLen:]
	certLen := 4 + len(sigRemainder)
	out = append(out, certKey, byte(certLen>>8), byte(certLen))
	out = append(out, byte(uint16(d.SigType)>>8), byte(uint16(d.SigType)))
	out = append(out, 0, 0) // crypto key type footer; unused crypto, always 0 (ElGamal legacy placeholder)
	out = append(out, sigRemainder...)
	return out, nil
}

// Parse decodes a Destination from its canonical byte form. It returns the
// destination and the number of bytes consumed (byteLength), so callers can
// locate trailing data (e.g. a private key blob).
func Parse(data []byte) (*Destination, int, error) {
	const minSize = cryptoKeyLen + 128 + 3
	if len(data) < minSize {
		return nil, 0, fmt.Errorf("destination: need at least %d bytes, got %d", minSize, len(data))
	}

	certType := data[384]
	certLen := int(data[385])<<8 | int(data[386])

	d := &Destination{}

	switch certType {
	case certNull:
		d.SigType = SigDSA_SHA1
		d.CryptoPublicKey = append([]byte(nil), data[:256]...)
		d.SigningPublicKey = append([]byte(nil), data[256:384]...)
		return d, 387, nil

	case certKey:
		if len(data) < 391 {
			return nil, 0, fmt.Errorf("destination: KEY certificate truncated")
		}
		sigType := SigType(uint16(data[387])<<8 | uint16(data[388]))
		if !sigType.Valid() {
			return nil, 0, fmt.Errorf("destination: unsupported signing type %d", sigType)
		}
		d.SigType = sigType

		pad := padLength(sigType)
		cryptoEnd := cryptoKeyLen
		sigStart := cryptoEnd + pad
		inlineSigLen := sigType.PublicKeyLen()
		if inlineSigLen > 128 {
			inlineSigLen = 128
		}
		sigEnd := sigStart + inlineSigLen
		if sigEnd != 384 {
			return nil, 0, fmt.Errorf("destination: inconsistent padding for %s", sigType)
		}

		d.CryptoPublicKey = append([]byte(nil), data[:cryptoEnd]...)
		inlineSig := data[sigStart:sigEnd]

		remainderLen := certLen - 4
		if remainderLen < 0 || 391+remainderLen > len(data) {
			return nil, 0, fmt.Errorf("destination: KEY certificate length inconsistent")
		}
		remainder := data[391 : 391+remainderLen]

		full := make([]byte, 0, sigType.PublicKeyLen())
		full = append(full, inlineSig...)
		full = append(full, remainder...)
		if len(full) != sigType.PublicKeyLen() {
			return nil, 0, fmt.Errorf("destination: signing key length mismatch for %s: got %d want %d",
				sigType, len(full), sigType.PublicKeyLen())
		}
		d.SigningPublicKey = full

		byteLength := 391 + remainderLen
		return d, byteLength, nil

	default:
		return nil, 0, fmt.Errorf("destination: unknown certificate type %d", certType)
	}
}

// Hash returns SHA-256 of the destination's canonical bytes.
func (d *Destination) Hash() ([32]byte, error) {
	b, err := d.Bytes()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

// ShortName returns the "<base32(hash)>.b32.i2p" identifier.
func (d *Destination) ShortName() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}
	return i2penc.ShortName(b), nil
}

// Base64 returns the URL-safe (I2P-alphabet) Base64 string form.
func (d *Destination) Base64() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}
	return i2penc.EncodeToString(b), nil
}

// ParseBase64 decodes an I2P Base64 destination string.
func ParseBase64(s string) (*Destination, error) {
	raw, err := i2penc.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("destination: base64 decode: %w", err)
	}
	d, _, err := Parse(raw)
	return d, err
}

// Verify checks sig over data (the packet-variant: DSA-SHA1 hashes inside
// the primitive, others hash however their Signer implements it directly
// over the raw buffer).
func (d *Destination) Verify(data, sig []byte) (bool, error) {
	signer, err := SignerFor(d.SigType)
	if err != nil {
		return false, err
	}
	return signer.Verify(d.SigningPublicKey, data, sig), nil
}

// VerifyPayload checks sig over data using the payload variant: for
// DSA-SHA1 the data is pre-hashed with SHA-256 before being handed to the
// (SHA-1-internal) DSA verifier, since the repliable-datagram format signs
// SHA-256(payload) rather than the payload itself. Other algorithms verify
// the raw payload directly.
func (d *Destination) VerifyPayload(data, sig []byte) (bool, error) {
	if d.SigType == SigDSA_SHA1 {
		h := sha256.Sum256(data)
		return d.Verify(h[:], sig)
	}
	return d.Verify(data, sig)
}
