package reddsa

import (
	"bytes"
	"testing"

	"github.com/go-i2p/go-i2p-client/destination"
)

// Published Red25519 test vectors are not available in this module's
// retrieval pack (see DESIGN.md); these tests instead check the properties
// spec §8 lists that don't require externally-sourced vectors:
// sign/verify round trip, and single-byte signature mutation detection.

func TestSignVerifyRoundTrip(t *testing.T) {
	s := signer{}
	pub, priv, err := s.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pub) != 32 || len(priv) != 32 {
		t.Fatalf("unexpected key lengths: pub=%d priv=%d", len(pub), len(priv))
	}

	msg := []byte("RedDSA over Ed25519 test message")
	sig, err := s.Sign(priv, msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != 64 {
		t.Fatalf("signature length = %d, want 64", len(sig))
	}
	if !s.Verify(pub, msg, sig) {
		t.Fatal("valid signature failed to verify")
	}
}

func TestSignaturesDifferButBothVerify(t *testing.T) {
	s := signer{}
	pub, priv, err := s.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	msg := []byte("same message, signed twice")

	sig1, err := s.Sign(priv, msg)
	if err != nil {
		t.Fatalf("sign 1: %v", err)
	}
	sig2, err := s.Sign(priv, msg)
	if err != nil {
		t.Fatalf("sign 2: %v", err)
	}
	if bytes.Equal(sig1, sig2) {
		t.Fatal("RedDSA signatures should differ across calls due to random nonce material")
	}
	if !s.Verify(pub, msg, sig1) || !s.Verify(pub, msg, sig2) {
		t.Fatal("both independently-generated signatures must verify")
	}
}

func TestMutatedSignatureFailsVerify(t *testing.T) {
	s := signer{}
	pub, priv, err := s.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	msg := []byte("tamper check")
	sig, err := s.Sign(priv, msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	mutated := append([]byte(nil), sig...)
	mutated[0] ^= 0x01
	if s.Verify(pub, msg, mutated) {
		t.Fatal("mutated signature verified")
	}
}

func TestRegisteredWithDestinationPackage(t *testing.T) {
	local, err := destination.Generate(destination.SigRedDSA_Ed25519)
	if err != nil {
		t.Fatalf("generate via destination package: %v", err)
	}
	data := []byte("wired through the signer registry")
	sig, err := local.Sign(data)
	if err != nil {
		t.Fatalf("sign via destination package: %v", err)
	}
	ok, err := local.Destination.Verify(data, sig)
	if err != nil {
		t.Fatalf("verify via destination package: %v", err)
	}
	if !ok {
		t.Fatal("destination package verify failed for a RedDSA signature")
	}
}
