package destination

import (
	"crypto/dsa" //nolint:staticcheck // required: DSA-SHA1 is a legacy destination type this spec still has to support
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // legacy algorithm mandated by the wire format, not a new design choice
	"fmt"
	"math/big"
)

// dsaParams holds the fixed 1024-bit/160-bit DSA group parameters defined by
// the I2P common-structures specification for the legacy "ElGamal+DSA"
// destination pairing. All DSA-SHA1 destinations share this group; it is
// not an arbitrary DSA group (e.g. an RFC 5114 group) — it is the specific
// P/Q/G triple every I2P router and client must agree on to interoperate.
var dsaParams = dsa.Parameters{
	P: mustBig("9C05B2AA960D9B97B8931963C9CC9E8C3026E9B8ED92FAD0A69CC886D5BF801" +
		"5FCADAE31A0AD18FAB3F01B00A358DE237655C4964AFAA2B337E96AD316B9FB" +
		"1CC564B5AEC5B69A9FF6C3E4548707FEF8503D91DD8602E867E6D35D2235C18" +
		"69CE2479C3B9D5401DE04E0727FB33D6511285D4CF29538D9E3B6051F5B22CC1C93"),
	Q: mustBig("A5DFC28FEF4CA1E286744CD8EED9D29D684046B7"),
	G: mustBig("C1F4D27D40093B429E962D7223824E0BBC47E7C832A39236FC683AF84889581" +
		"075FF9082ED32353D4374D7301CDA1D23C431F4698599DDA02451824FF36975" +
		"2593647CC3DDC197DE985E43D136CDCFC6BD5809323B367C7624141CD457237C08"),
}

func mustBig(hexStr string) *big.Int {
	v, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		panic("destination: invalid DSA group constant")
	}
	return v
}

// dsaSigner implements Signer for DSA-SHA1 over the fixed I2P group.
// Per spec §4.C: resample on key generation if a drawn private key isn't
// exactly 20 bytes or a drawn public key isn't exactly 128 bytes.
type dsaSigner struct{}

func (dsaSigner) Sign(private, data []byte) ([]byte, error) {
	x := new(big.Int).SetBytes(private)
	priv := dsa.PrivateKey{
		PublicKey: dsa.PublicKey{Parameters: dsaParams},
		X:         x,
	}
	priv.Y = new(big.Int).Exp(dsaParams.G, x, dsaParams.P)

	digest := sha1Sum(data)
	r, s, err := dsa.Sign(rand.Reader, &priv, digest)
	if err != nil {
		return nil, fmt.Errorf("dsa sign: %w", err)
	}

	out := make([]byte, 40)
	r.FillBytes(out[:20])
	s.FillBytes(out[20:])
	return out, nil
}

func (dsaSigner) Verify(public, data, sig []byte) bool {
	if len(public) != 128 || len(sig) != 40 {
		return false
	}
	pub := dsa.PublicKey{
		Parameters: dsaParams,
		Y:          new(big.Int).SetBytes(public),
	}
	r := new(big.Int).SetBytes(sig[:20])
	s := new(big.Int).SetBytes(sig[20:])
	return dsa.Verify(&pub, sha1Sum(data), r, s)
}

func (dsaSigner) Generate() (public, private []byte, err error) {
	for attempt := 0; attempt < 32; attempt++ {
		x, err := randFieldElement(dsaParams.Q)
		if err != nil {
			return nil, nil, err
		}
		y := new(big.Int).Exp(dsaParams.G, x, dsaParams.P)

		if len(x.Bytes()) == 20 && len(y.Bytes()) == 128 {
			return leftPad(y.Bytes(), 128), leftPad(x.Bytes(), 20), nil
		}
	}
	return nil, nil, fmt.Errorf("dsa generate: failed to draw valid key pair after 32 attempts")
}

func randFieldElement(q *big.Int) (*big.Int, error) {
	for {
		buf := make([]byte, (q.BitLen()+7)/8)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("dsa rand: %w", err)
		}
		x := new(big.Int).SetBytes(buf)
		if x.Sign() > 0 && x.Cmp(q) < 0 {
			return x, nil
		}
	}
}

func leftPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}

func sha1Sum(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}
