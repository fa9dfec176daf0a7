// Package destination implements I2P destination management: the packed
// destination byte layout, the six signature algorithms a destination can
// carry, and the local-identity type that owns a signing private key.
//
// This is a from-scratch implementation rather than a wrapper around
// github.com/go-i2p/common or github.com/go-i2p/i2pkeys: the destination
// codec and signing abstraction are this module's core subject matter, not
// ambient plumbing. See DESIGN.md for the dependency trade-off.
package destination

import "fmt"

// SigType identifies one of the six signature algorithms a destination may
// carry. Values match the I2P common-structures signing-key-type codes.
type SigType uint16

const (
	SigDSA_SHA1       SigType = 0
	SigECDSA_P256      SigType = 1
	SigECDSA_P384      SigType = 2
	SigECDSA_P521      SigType = 3
	SigEd25519         SigType = 7
	SigRedDSA_Ed25519  SigType = 11
)

// DefaultSigType is Ed25519, the recommended default for new destinations.
const DefaultSigType = SigEd25519

// keyLengths holds {public, private, signature} byte lengths per type.
var keyLengths = map[SigType][3]int{
	SigDSA_SHA1:      {128, 20, 40},
	SigECDSA_P256:     {64, 32, 64},
	SigECDSA_P384:     {96, 48, 96},
	SigECDSA_P521:     {132, 66, 132},
	SigEd25519:        {32, 32, 64},
	SigRedDSA_Ed25519: {32, 32, 64},
}

// PublicKeyLen returns the on-wire length of a public signing key of type t.
func (t SigType) PublicKeyLen() int { return keyLengths[t][0] }

// PrivateKeyLen returns the on-wire length of a private signing key of type t.
func (t SigType) PrivateKeyLen() int { return keyLengths[t][1] }

// SignatureLen returns the on-wire length of a signature produced by type t.
func (t SigType) SignatureLen() int { return keyLengths[t][2] }

// IsNullCert reports whether destinations of this type use a NULL
// certificate (only DSA-SHA1, the legacy ElGamal+DSA pairing) rather than a
// KEY certificate.
func (t SigType) IsNullCert() bool { return t == SigDSA_SHA1 }

// Valid reports whether t is one of the six supported signature types.
func (t SigType) Valid() bool {
	_, ok := keyLengths[t]
	return ok
}

func (t SigType) String() string {
	switch t {
	case SigDSA_SHA1:
		return "DSA-SHA1"
	case SigECDSA_P256:
		return "ECDSA-P256"
	case SigECDSA_P384:
		return "ECDSA-P384"
	case SigECDSA_P521:
		return "ECDSA-P521"
	case SigEd25519:
		return "Ed25519"
	case SigRedDSA_Ed25519:
		return "RedDSA-Ed25519"
	default:
		return fmt.Sprintf("SigType(%d)", uint16(t))
	}
}

// Signer is the uniform interface every signature algorithm adapter
// implements: sign, verify, and key generation.
type Signer interface {
	// Sign produces a detached signature over data using the raw private
	// key bytes.
	Sign(private, data []byte) ([]byte, error)
	// Verify reports whether sig is a valid signature over data under the
	// raw public key bytes.
	Verify(public, data, sig []byte) bool
	// Generate returns a fresh (public, private) key pair.
	Generate() (public, private []byte, err error)
}

// signers maps each supported type to its adapter. RedDSA is registered by
// destination/reddsa via RegisterSigner to avoid an import cycle between the
// two packages' tests.
var signers = map[SigType]Signer{
	SigDSA_SHA1:   dsaSigner{},
	SigECDSA_P256:  ecdsaSigner{curveP256},
	SigECDSA_P384:  ecdsaSigner{curveP384},
	SigECDSA_P521:  ecdsaSigner{curveP521},
	SigEd25519:     ed25519Signer{},
}

// SignerFor returns the Signer adapter for t, or an error if t is
// unsupported.
func SignerFor(t SigType) (Signer, error) {
	s, ok := signers[t]
	if !ok {
		return nil, fmt.Errorf("destination: unsupported signature type %s", t)
	}
	return s, nil
}

// RegisterSigner installs a Signer adapter for t. Used by destination/reddsa
// to plug in RedDSA without destination importing it directly (RedDSA's
// implementation depends on destination only for SigType, not vice versa).
func RegisterSigner(t SigType, s Signer) {
	signers[t] = s
}
