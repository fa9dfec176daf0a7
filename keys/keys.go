// Package keys provides the I2PAddr/I2PKeys value types the rest of this
// module's session and subsession packages pass around, plus the
// "incompat" key-file persistence format SAM's DEST GENERATE workflow uses.
//
// Some SAM client libraries import an equivalent surface from
// github.com/go-i2p/i2pkeys. That package encapsulates destination parsing
// and signing-key-type bookkeeping, which is exactly this repository's
// subject matter, so this package builds the same small surface from
// scratch on top of the destination package rather than depending on it.
// See DESIGN.md.
package keys

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-i2p/go-i2p-client/destination"
	_ "github.com/go-i2p/go-i2p-client/destination/reddsa"
	"github.com/go-i2p/go-i2p-client/i2penc"
)

// Signature type names accepted by SAM's "DEST GENERATE [SIGNATURE_TYPE=...]"
// and "SESSION CREATE ... SIGNATURE_TYPE=..." arguments.
const (
	KT_DSA_SHA1             = "DSA_SHA1"
	KT_ECDSA_SHA256_P256    = "ECDSA_SHA256_P256"
	KT_ECDSA_SHA384_P384    = "ECDSA_SHA384_P384"
	KT_ECDSA_SHA512_P521    = "ECDSA_SHA512_P521"
	KT_EdDSA_SHA512_Ed25519 = "EdDSA_SHA512_Ed25519"
	KT_RedDSA_SHA512_Ed25519 = "RedDSA_SHA512_Ed25519"
)

var sigTypeNames = map[string]destination.SigType{
	KT_DSA_SHA1:              destination.SigDSA_SHA1,
	KT_ECDSA_SHA256_P256:     destination.SigECDSA_P256,
	KT_ECDSA_SHA384_P384:     destination.SigECDSA_P384,
	KT_ECDSA_SHA512_P521:     destination.SigECDSA_P521,
	KT_EdDSA_SHA512_Ed25519:  destination.SigEd25519,
	KT_RedDSA_SHA512_Ed25519: destination.SigRedDSA_Ed25519,
}

// SigTypeByName resolves a SAM signature-type argument to a destination.SigType.
// An empty name resolves to destination.DefaultSigType.
func SigTypeByName(name string) (destination.SigType, error) {
	if name == "" {
		return destination.DefaultSigType, nil
	}
	t, ok := sigTypeNames[name]
	if !ok {
		return 0, fmt.Errorf("keys: unknown signature type %q", name)
	}
	return t, nil
}

// I2PAddr is a destination's Base64 text form, used wherever the rest of
// this module needs a value that satisfies net.Addr.
type I2PAddr string

// Network implements net.Addr.
func (a I2PAddr) Network() string { return "i2p" }

// String implements net.Addr and fmt.Stringer.
func (a I2PAddr) String() string { return string(a) }

// Base64 returns the destination's Base64 text form (identical to String).
func (a I2PAddr) Base64() string { return string(a) }

// Base32 returns the destination's "<base32>.b32.i2p" short form.
func (a I2PAddr) Base32() string {
	d, err := destination.ParseBase64(string(a))
	if err != nil {
		return ""
	}
	name, err := d.ShortName()
	if err != nil {
		return ""
	}
	return name
}

// DestHash identifies the SHA-256 hash of the destination.
type DestHash [32]byte

// Hash returns the I2P Base64 encoding of the hash bytes, as used in
// NAMING LOOKUP and HostLookup exchanges.
func (h DestHash) Hash() string {
	return i2penc.EncodeToString(h[:])
}

// DestHash computes the destination hash of a.
func (a I2PAddr) DestHash() DestHash {
	d, err := destination.ParseBase64(string(a))
	if err != nil {
		return DestHash{}
	}
	h, err := d.Hash()
	if err != nil {
		return DestHash{}
	}
	return DestHash(h)
}

// NewI2PAddrFromString validates and wraps a Base64 destination string.
func NewI2PAddrFromString(s string) (I2PAddr, error) {
	if _, err := destination.ParseBase64(s); err != nil {
		return "", fmt.Errorf("keys: invalid destination: %w", err)
	}
	return I2PAddr(s), nil
}

// I2PKeys pairs a destination's public address with the private key blob
// needed to prove ownership of it, as returned by SAM's DEST GENERATE and
// SESSION CREATE responses.
type I2PKeys struct {
	Address I2PAddr
	Priv    string
}

// Addr returns the public address half of the key pair.
func (k I2PKeys) Addr() I2PAddr { return k.Address }

// NewKeys pairs an address and a private-key blob (both already Base64) into
// an I2PKeys value.
func NewKeys(addr I2PAddr, priv string) I2PKeys {
	return I2PKeys{Address: addr, Priv: priv}
}

// NewDestination generates a fresh transient key pair locally, without
// talking to a router. sigType, if given, selects the signature algorithm;
// it defaults to Ed25519.
func NewDestination(sigType ...string) (I2PKeys, error) {
	name := ""
	if len(sigType) > 0 {
		name = sigType[0]
	}
	t, err := SigTypeByName(name)
	if err != nil {
		return I2PKeys{}, err
	}
	local, err := destination.Generate(t)
	if err != nil {
		return I2PKeys{}, fmt.Errorf("keys: generate: %w", err)
	}
	pub, err := local.Base64()
	if err != nil {
		return I2PKeys{}, err
	}
	priv, err := local.PrivateKeyBytes()
	if err != nil {
		return I2PKeys{}, err
	}
	return I2PKeys{Address: I2PAddr(pub), Priv: i2penc.EncodeToString(priv)}, nil
}

// LoadKeysIncompat reads the two-line "ADDRESS\nPRIVKEY\n" key-file format
// this module writes via StoreKeysIncompat. The name marks what it is not:
// the format used by the Java I2P router's keystore files.
func LoadKeysIncompat(r io.Reader) (I2PKeys, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1<<20)

	if !s.Scan() {
		return I2PKeys{}, fmt.Errorf("keys: empty key file")
	}
	addr := strings.TrimSpace(s.Text())

	if !s.Scan() {
		return I2PKeys{}, fmt.Errorf("keys: key file missing private key line")
	}
	priv := strings.TrimSpace(s.Text())

	if err := s.Err(); err != nil {
		return I2PKeys{}, fmt.Errorf("keys: read: %w", err)
	}

	if _, err := NewI2PAddrFromString(addr); err != nil {
		return I2PKeys{}, err
	}
	return I2PKeys{Address: I2PAddr(addr), Priv: priv}, nil
}

// StoreKeysIncompat writes keys in the format LoadKeysIncompat reads back.
func StoreKeysIncompat(keys I2PKeys, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", keys.Address, keys.Priv)
	return err
}
