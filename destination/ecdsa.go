package destination

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"math/big"
)

// curveSpec bundles an elliptic curve with the digest it's paired with per
// the I2P signing-key-type table (P256/SHA256, P384/SHA384, P521/SHA512).
type curveSpec struct {
	curve   elliptic.Curve
	newHash func() hash.Hash
	coordLen int
}

var (
	curveP256 = curveSpec{elliptic.P256(), sha256.New, 32}
	curveP384 = curveSpec{elliptic.P384(), sha512.New384, 48}
	curveP521 = curveSpec{elliptic.P521(), sha512.New, 66}
)

// ecdsaSigner implements Signer for the three ECDSA variants I2P supports.
// Public keys are stored on the wire without the uncompressed-point 0x04
// prefix; this adapter reads and writes the bare X || Y coordinates directly.
type ecdsaSigner struct {
	spec curveSpec
}

func (a ecdsaSigner) digest(data []byte) []byte {
	h := a.spec.newHash()
	h.Write(data)
	return h.Sum(nil)
}

func (a ecdsaSigner) Sign(private, data []byte) ([]byte, error) {
	d := new(big.Int).SetBytes(private)
	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: a.spec.curve},
		D:         d,
	}
	key.PublicKey.X, key.PublicKey.Y = a.spec.curve.ScalarBaseMult(private)

	r, s, err := ecdsa.Sign(rand.Reader, key, a.digest(data))
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}

	n := a.spec.coordLen
	out := make([]byte, 2*n)
	r.FillBytes(out[:n])
	s.FillBytes(out[n:])
	return out, nil
}

func (a ecdsaSigner) Verify(public, data, sig []byte) bool {
	n := a.spec.coordLen
	if len(public) != 2*n || len(sig) != 2*n {
		return false
	}
	// The wire form omits the 0x04 uncompressed-point prefix; split X and Y directly.
	x := new(big.Int).SetBytes(public[:n])
	y := new(big.Int).SetBytes(public[n:])
	if !a.spec.curve.IsOnCurve(x, y) {
		return false
	}
	key := &ecdsa.PublicKey{Curve: a.spec.curve, X: x, Y: y}

	r := new(big.Int).SetBytes(sig[:n])
	s := new(big.Int).SetBytes(sig[n:])
	return ecdsa.Verify(key, a.digest(data), r, s)
}

func (a ecdsaSigner) Generate() (public, private []byte, err error) {
	key, err := ecdsa.GenerateKey(a.spec.curve, rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("ecdsa generate: %w", err)
	}
	n := a.spec.coordLen
	pub := make([]byte, 2*n)
	key.X.FillBytes(pub[:n])
	key.Y.FillBytes(pub[n:])

	priv := make([]byte, n)
	key.D.FillBytes(priv)
	return pub, priv, nil
}
