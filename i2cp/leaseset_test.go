package i2cp

import (
	"testing"
	"time"

	"github.com/go-i2p/go-i2p-client/wireutil"
)

func TestParseLease1ToLease2ReducesExpiryToSeconds(t *testing.T) {
	raw := make([]byte, 44)
	for i := range raw[:32] {
		raw[i] = byte(i)
	}
	copy(raw[32:36], wireutil.PutUint32(nil, 99))
	copy(raw[36:44], wireutil.PutUint64(nil, 123456000))

	l1, err := ParseLease1(raw)
	if err != nil {
		t.Fatalf("parse lease1: %v", err)
	}
	if l1.TunnelID != 99 {
		t.Fatalf("tunnel id = %d, want 99", l1.TunnelID)
	}
	if l1.ExpiresMs != 123456000 {
		t.Fatalf("expires ms = %d, want 123456000", l1.ExpiresMs)
	}

	l2 := ToLease2(l1)
	if l2.TunnelID != l1.TunnelID {
		t.Fatal("lease2 should preserve the tunnel id")
	}
	if l2.ExpiresSec != 123456 {
		t.Fatalf("expires sec = %d, want 123456", l2.ExpiresSec)
	}
	if l2.TunnelGateway != l1.TunnelGateway {
		t.Fatal("lease2 should preserve the tunnel gateway hash")
	}
}

func TestParseLease1RejectsShortInput(t *testing.T) {
	if _, err := ParseLease1(make([]byte, 10)); err == nil {
		t.Fatal("expected error parsing a too-short lease1")
	}
}

func TestBuildLeaseSet2CarriesSigningPrivateKeyAtEnd(t *testing.T) {
	local := genLocal(t)
	leases := []Lease2{ToLease2(Lease1{TunnelID: 1, ExpiresMs: 60000})}

	out, err := BuildLeaseSet2(local, leases, time.Now())
	if err != nil {
		t.Fatalf("build leaseset2: %v", err)
	}
	if len(out) < len(local.PrivateSigningKey)+4 {
		t.Fatal("leaseset2 output too short to carry a private key block")
	}
	tail := out[len(out)-len(local.PrivateSigningKey):]
	if string(tail) != string(local.PrivateSigningKey) {
		t.Fatal("expected the signing private key to be appended verbatim at the end")
	}
}
