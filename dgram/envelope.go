// Package dgram builds and parses the two datagram envelope formats this
// module moves over either router-facing protocol: signed repliable
// datagrams and unsigned raw datagrams. It also implements the gzip-framed
// payload wrapper the router-control binary client uses to carry source
// port, destination port, and protocol id alongside compressed payload
// bytes.
package dgram

import (
	"fmt"

	"github.com/go-i2p/go-i2p-client/destination"
)

// Protocol ids substituted into the gzip frame's header, per the I2CP
// payload convention.
const (
	ProtocolStreaming         = 6
	ProtocolRepliableDatagram = 17
	ProtocolRawDatagram       = 18
)

// BuildRepliable assembles a signed repliable datagram:
// destination_bytes || signature || payload. The signature covers
// SHA-256(payload) for DSA-SHA1 destinations, the raw payload otherwise.
func BuildRepliable(local *destination.LocalDestination, payload []byte) ([]byte, error) {
	destBytes, err := local.Destination.Bytes()
	if err != nil {
		return nil, fmt.Errorf("dgram: destination bytes: %w", err)
	}

	sig, err := signPayload(local, payload)
	if err != nil {
		return nil, fmt.Errorf("dgram: sign payload: %w", err)
	}

	out := make([]byte, 0, len(destBytes)+len(sig)+len(payload))
	out = append(out, destBytes...)
	out = append(out, sig...)
	out = append(out, payload...)
	return out, nil
}

func signPayload(local *destination.LocalDestination, payload []byte) ([]byte, error) {
	if local.SigType == destination.SigDSA_SHA1 {
		h := sha256Sum(payload)
		return local.Sign(h)
	}
	return local.Sign(payload)
}

// ParseRepliable splits and verifies a signed repliable datagram, returning
// the sender's Destination and the payload. Verification failure is
// reported as an error so callers can drop silently per the module's error
// policy for forged packets.
func ParseRepliable(data []byte) (src *destination.Destination, payload []byte, err error) {
	d, n, err := destination.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("dgram: parse source destination: %w", err)
	}
	rest := data[n:]

	sigLen := d.SigType.SignatureLen()
	if len(rest) < sigLen {
		return nil, nil, fmt.Errorf("dgram: datagram truncated: want %d signature bytes, got %d", sigLen, len(rest))
	}
	sig := rest[:sigLen]
	body := rest[sigLen:]

	ok, err := d.VerifyPayload(body, sig)
	if err != nil {
		return nil, nil, fmt.Errorf("dgram: verify: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("dgram: signature verification failed")
	}
	return d, body, nil
}

// BuildRaw returns payload unchanged: raw datagrams carry no destination or
// signature of their own (the router already knows the sender from the
// session binding it delivered on).
func BuildRaw(payload []byte) []byte {
	out := make([]byte, len(payload))
	copy(out, payload)
	return out
}

// ParseRaw is the identity operation, kept for symmetry with ParseRepliable.
func ParseRaw(data []byte) []byte {
	return BuildRaw(data)
}
