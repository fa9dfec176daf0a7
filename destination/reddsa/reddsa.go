// Package reddsa implements RedDSA over Ed25519, the Schnorr-style signature
// variant I2P uses for its eleventh signing-key type. It is a from-scratch
// construction built on filippo.io/edwards25519's group arithmetic, not a
// repackaging of stdlib Ed25519: RedDSA's nonce and challenge derivation use
// a domain-separated hash distinct from RFC 8032.
//
// Importing this package registers SigRedDSA_Ed25519 into destination's
// signer registry as a side effect, the same blank-import driver
// registration pattern commonly used to plug optional codecs into a
// registry without creating an import cycle.
package reddsa

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/go-i2p/go-i2p-client/destination"
)

// domainPrefix separates RedDSA's hash-to-scalar function from any other
// use of SHA-512 over the same inputs.
const domainPrefix = "I2P_Red25519H(x)"

// nonceRandomBytes is the size of T, the per-signature random input mixed
// into the nonce hash so two signatures over the same message differ.
const nonceRandomBytes = 80

func init() {
	destination.RegisterSigner(destination.SigRedDSA_Ed25519, signer{})
}

type signer struct{}

// hashToScalar computes H*(prefix1, prefix2, msg) =
// SHA-512(domainPrefix || prefix1 || prefix2 || len_lo || len_hi || msg)
// reduced mod the group order L, where len_lo/len_hi are the two low bytes
// of len(msg).
func hashToScalar(prefix1, prefix2, msg []byte) (*edwards25519.Scalar, error) {
	h := sha512.New()
	h.Write([]byte(domainPrefix))
	h.Write(prefix1)
	h.Write(prefix2)
	n := len(msg)
	h.Write([]byte{byte(n), byte(n >> 8)})
	h.Write(msg)
	sum := h.Sum(nil)
	s, err := edwards25519.NewScalar().SetUniformBytes(sum)
	if err != nil {
		return nil, fmt.Errorf("reddsa: hash-to-scalar: %w", err)
	}
	return s, nil
}

// expandSeed derives the signing scalar from a 32-byte seed: SHA-512(seed),
// then Ed25519-style clamping of the first 32 bytes. Unlike Ed25519, the
// second half of the digest is not used as a deterministic nonce prefix —
// RedDSA's nonce comes from fresh randomness per signature (see Sign).
func expandSeed(seed []byte) (*edwards25519.Scalar, error) {
	if len(seed) != 32 {
		return nil, fmt.Errorf("reddsa: seed must be 32 bytes, got %d", len(seed))
	}
	h := sha512.Sum512(seed)
	s, err := edwards25519.NewScalar().SetBytesWithClamping(h[:32])
	if err != nil {
		return nil, fmt.Errorf("reddsa: clamp scalar: %w", err)
	}
	return s, nil
}

func (signer) Generate() (public, private []byte, err error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, nil, fmt.Errorf("reddsa generate: %w", err)
	}
	s, err := expandSeed(seed)
	if err != nil {
		return nil, nil, err
	}
	A := (&edwards25519.Point{}).ScalarBaseMult(s)
	return A.Bytes(), seed, nil
}

// Sign implements the spec's sign(msg, sk): sample T = 80 random bytes,
// r := H*(T, vk, msg), R := r·B, c := H*(R, vk, msg), S := (r + c·sk) mod L,
// output R_bytes || S_bytes (S little-endian, per edwards25519.Scalar.Bytes).
func (signer) Sign(private, data []byte) ([]byte, error) {
	s, err := expandSeed(private)
	if err != nil {
		return nil, err
	}
	A := (&edwards25519.Point{}).ScalarBaseMult(s)
	vk := A.Bytes()

	T := make([]byte, nonceRandomBytes)
	if _, err := rand.Read(T); err != nil {
		return nil, fmt.Errorf("reddsa sign: random nonce: %w", err)
	}

	r, err := hashToScalar(T, vk, data)
	if err != nil {
		return nil, err
	}
	R := (&edwards25519.Point{}).ScalarBaseMult(r)

	c, err := hashToScalar(R.Bytes(), vk, data)
	if err != nil {
		return nil, err
	}

	// S = r + c*sk.
	S := edwards25519.NewScalar().MultiplyAdd(c, s, r)

	sig := make([]byte, 64)
	copy(sig[:32], R.Bytes())
	copy(sig[32:], S.Bytes())
	return sig, nil
}

// Verify implements the spec's verify(msg, sig, vk): decode R, S (rejecting
// S >= L), recompute c := H*(R, vk, msg), and accept iff
// cofactor · (-S·B + R + c·vk) = identity.
func (signer) Verify(public, data, sig []byte) bool {
	if len(public) != 32 || len(sig) != 64 {
		return false
	}
	A, err := (&edwards25519.Point{}).SetBytes(public)
	if err != nil {
		return false
	}
	R, err := (&edwards25519.Point{}).SetBytes(sig[:32])
	if err != nil {
		return false
	}
	S, err := edwards25519.NewScalar().SetCanonicalBytes(sig[32:])
	if err != nil {
		return false
	}

	c, err := hashToScalar(sig[:32], public, data)
	if err != nil {
		return false
	}

	negSB := (&edwards25519.Point{}).Negate((&edwards25519.Point{}).ScalarBaseMult(S))
	cA := (&edwards25519.Point{}).ScalarMult(c, A)
	sum := (&edwards25519.Point{}).Add(negSB, (&edwards25519.Point{}).Add(R, cA))
	cleared := (&edwards25519.Point{}).MultByCofactor(sum)

	identity := edwards25519.NewIdentityPoint()
	return cleared.Equal(identity) == 1
}
