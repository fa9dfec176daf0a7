package keys

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-i2p/go-i2p-client/destination"
)

func TestSigTypeByNameDefaultsToEd25519(t *testing.T) {
	st, err := SigTypeByName("")
	if err != nil {
		t.Fatalf("empty name: %v", err)
	}
	if st != destination.DefaultSigType {
		t.Fatalf("got %v, want default %v", st, destination.DefaultSigType)
	}
}

func TestSigTypeByNameKnownAndUnknown(t *testing.T) {
	st, err := SigTypeByName(KT_RedDSA_SHA512_Ed25519)
	if err != nil {
		t.Fatalf("known name: %v", err)
	}
	if st != destination.SigRedDSA_Ed25519 {
		t.Fatalf("got %v, want RedDSA_Ed25519", st)
	}
	if _, err := SigTypeByName("NOT_A_REAL_SIGTYPE"); err == nil {
		t.Fatal("expected error for unknown signature type name")
	}
}

func TestNewDestinationProducesValidAddrAndPriv(t *testing.T) {
	ks, err := NewDestination(KT_EdDSA_SHA512_Ed25519)
	if err != nil {
		t.Fatalf("new destination: %v", err)
	}
	if ks.Address == "" || ks.Priv == "" {
		t.Fatal("expected non-empty address and private key")
	}
	if ks.Addr() != ks.Address {
		t.Fatal("Addr() should return the same value as Address")
	}

	// Base32 short name must have the expected suffix.
	short := ks.Address.Base32()
	if !strings.HasSuffix(short, ".b32.i2p") {
		t.Fatalf("base32 short name = %q, missing .b32.i2p suffix", short)
	}

	h1 := ks.Address.DestHash()
	h2 := ks.Address.DestHash()
	if h1 != h2 {
		t.Fatal("DestHash should be deterministic for the same address")
	}
}

func TestNewI2PAddrFromStringRejectsGarbage(t *testing.T) {
	if _, err := NewI2PAddrFromString("not a valid destination"); err == nil {
		t.Fatal("expected error for a non-destination string")
	}
}

func TestLoadStoreKeysIncompatRoundTrip(t *testing.T) {
	ks, err := NewDestination()
	if err != nil {
		t.Fatalf("new destination: %v", err)
	}

	var buf bytes.Buffer
	if err := StoreKeysIncompat(ks, &buf); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := LoadKeysIncompat(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Address != ks.Address || got.Priv != ks.Priv {
		t.Fatal("round trip through the key file format lost data")
	}
}

func TestLoadKeysIncompatRejectsTruncatedFile(t *testing.T) {
	if _, err := LoadKeysIncompat(strings.NewReader("")); err == nil {
		t.Fatal("expected error loading an empty key file")
	}
	if _, err := LoadKeysIncompat(strings.NewReader("onlyoneline\n")); err == nil {
		t.Fatal("expected error loading a key file missing the private key line")
	}
}
