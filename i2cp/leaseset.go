package i2cp

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/wireutil"
)

const (
	leaseExpiresAfter = 10 * time.Minute

	keyTypeElGamal2048 = 0
	keyTypeX25519      = 4

	leaseSetFlagOfflineSig  = 1 << 0
	leaseSetFlagUnpublished = 1 << 1
	leaseSetFlagEncrypted   = 1 << 2
)

// Lease1 is the 44-byte lease structure the router sends in
// RequestVariableLeaseSet: a tunnel gateway hash, tunnel id, and an
// expiration in milliseconds.
type Lease1 struct {
	TunnelGateway [32]byte
	TunnelID      uint32
	ExpiresMs     uint64
}

// ParseLease1 decodes one 44-byte lease1 entry.
func ParseLease1(b []byte) (Lease1, error) {
	if len(b) < 44 {
		return Lease1{}, fmt.Errorf("i2cp: lease1 shorter than 44 bytes")
	}
	var l Lease1
	copy(l.TunnelGateway[:], b[:32])
	l.TunnelID = wireutil.Uint32(b[32:36])
	l.ExpiresMs = wireutil.Uint64(b[36:44])
	return l, nil
}

// Lease2 is the 40-byte on-wire form CreateLeaseSet2 carries: the same
// gateway/tunnel-id prefix, with expiration reduced to seconds.
type Lease2 struct {
	TunnelGateway [32]byte
	TunnelID      uint32
	ExpiresSec    uint32
}

// ToLease2 converts a router-supplied lease1 into the lease2 form this
// client publishes.
func ToLease2(l Lease1) Lease2 {
	return Lease2{
		TunnelGateway: l.TunnelGateway,
		TunnelID:      l.TunnelID,
		ExpiresSec:    uint32(l.ExpiresMs / 1000),
	}
}

func (l Lease2) bytes() []byte {
	out := make([]byte, 0, 40)
	out = append(out, l.TunnelGateway[:]...)
	out = wireutil.PutUint32(out, l.TunnelID)
	out = wireutil.PutUint32(out, l.ExpiresSec)
	return out
}

// encryptionKey is one of the two encryption keys every leaseset2 carries:
// a legacy ElGamal-2048 key (unused, kept for backward compatibility) and
// an X25519 key (the one actually used by modern routers).
type encryptionKey struct {
	keyType uint16
	public  []byte
}

func generateEncryptionKeys() ([]encryptionKey, error) {
	elgamal := make([]byte, 256)
	if _, err := rand.Read(elgamal); err != nil {
		return nil, fmt.Errorf("i2cp: elgamal key: %w", err)
	}
	x25519 := make([]byte, 32)
	if _, err := rand.Read(x25519); err != nil {
		return nil, fmt.Errorf("i2cp: x25519 key: %w", err)
	}
	return []encryptionKey{
		{keyType: keyTypeElGamal2048, public: elgamal},
		{keyType: keyTypeX25519, public: x25519},
	}, nil
}

// BuildLeaseSet2 assembles and signs a version-2 leaseset for local,
// carrying leases. now is the current time, used for the published
// timestamp and the 10-minute expiry.
func BuildLeaseSet2(local *destination.LocalDestination, leases []Lease2, now time.Time) ([]byte, error) {
	destBytes, err := local.Destination.Bytes()
	if err != nil {
		return nil, fmt.Errorf("i2cp: leaseset destination bytes: %w", err)
	}

	keys, err := generateEncryptionKeys()
	if err != nil {
		return nil, err
	}

	var body []byte
	body = append(body, destBytes...)
	body = wireutil.PutUint32(body, uint32(now.Unix()))
	body = wireutil.PutUint16(body, uint16(leaseExpiresAfter/time.Second))
	body = wireutil.PutUint16(body, 0) // flags: published, no offline sig

	// empty options mapping: u16 total_len=0
	body = wireutil.PutUint16(body, 0)

	body = append(body, byte(len(keys)))
	for _, k := range keys {
		body = wireutil.PutUint16(body, k.keyType)
		body = wireutil.PutUint16(body, uint16(len(k.public)))
		body = append(body, k.public...)
	}

	body = append(body, byte(len(leases)))
	for _, l := range leases {
		body = append(body, l.bytes()...)
	}

	signed := make([]byte, 0, len(body)+1)
	signed = append(signed, 0x03)
	signed = append(signed, body...)

	sig, err := local.Sign(signed)
	if err != nil {
		return nil, fmt.Errorf("i2cp: sign leaseset: %w", err)
	}

	return buildPrivateKeyBlock(body, sig, local)
}

// buildPrivateKeyBlock appends the private-key section the router expects
// after a leaseset2's signature: key_count || [u16 type || u16 len || priv]+.
// This module only ever carries the signing private key in that section:
// it never needs to decrypt leases itself, so no encryption private key is
// generated or stored (leaseset encryption is not supported).
func buildPrivateKeyBlock(body, sig []byte, local *destination.LocalDestination) ([]byte, error) {
	out := make([]byte, 0, len(body)+len(sig)+8+len(local.PrivateSigningKey))
	out = append(out, body...)
	out = append(out, sig...)

	out = append(out, 1)
	out = wireutil.PutUint16(out, uint16(local.SigType))
	out = wireutil.PutUint16(out, uint16(len(local.PrivateSigningKey)))
	out = append(out, local.PrivateSigningKey...)
	return out, nil
}
