package i2cp

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/dgram"
)

func genLocal(t *testing.T) *destination.LocalDestination {
	t.Helper()
	local, err := destination.Generate(destination.SigEd25519)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return local
}

func TestFrameWriteReadRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- WriteFrame(client, MsgSendMessage, []byte("payload bytes"))
	}()

	r := bufio.NewReader(server)
	frame, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if frame.Type != MsgSendMessage {
		t.Fatalf("frame type = %d, want %d", frame.Type, MsgSendMessage)
	}
	if string(frame.Payload) != "payload bytes" {
		t.Fatalf("frame payload = %q", frame.Payload)
	}
}

func TestBuildCreateSessionAndParseSessionStatus(t *testing.T) {
	local := genLocal(t)
	msg, err := BuildCreateSession(local, map[string]string{"i2cp.dontPublishLeaseSet": "true"}, time.Now())
	if err != nil {
		t.Fatalf("build create session: %v", err)
	}
	destBytes, err := local.Destination.Bytes()
	if err != nil {
		t.Fatalf("destination bytes: %v", err)
	}
	if len(msg) <= len(destBytes) {
		t.Fatal("create session message should carry options and a signature beyond the destination bytes")
	}

	statusPayload := append(wireutil16(7), byte(SessionCreated))
	sessionID, status, err := ParseSessionStatus(statusPayload)
	if err != nil {
		t.Fatalf("parse session status: %v", err)
	}
	if sessionID != 7 {
		t.Fatalf("sessionID = %d, want 7", sessionID)
	}
	if status != SessionCreated {
		t.Fatalf("status = %v, want CREATED", status)
	}
}

func wireutil16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func TestBuildSendMessageIncludesDestinationAndNonce(t *testing.T) {
	local := genLocal(t)
	payload := []byte("hello stream")
	msg, err := BuildSendMessage(3, &local.Destination, payload, 0xDEADBEEF)
	if err != nil {
		t.Fatalf("build send message: %v", err)
	}
	if len(msg) < 2+1+len(payload)+4 {
		t.Fatalf("send message too short: %d bytes", len(msg))
	}
	// Last 4 bytes are the nonce.
	nonce := uint32(msg[len(msg)-4])<<24 | uint32(msg[len(msg)-3])<<16 | uint32(msg[len(msg)-2])<<8 | uint32(msg[len(msg)-1])
	if nonce != 0xDEADBEEF {
		t.Fatalf("nonce = %#x, want 0xDEADBEEF", nonce)
	}
}

func TestParseMessageStatus(t *testing.T) {
	payload := make([]byte, 15)
	payload[0], payload[1] = 0, 9 // sessionId = 9
	payload[2], payload[3], payload[4], payload[5] = 0, 0, 0, 42 // messageId = 42
	payload[6] = byte(MessageAccepted)
	payload[11], payload[12], payload[13], payload[14] = 0, 0, 0, 5 // nonce = 5

	ms, err := ParseMessageStatus(payload)
	if err != nil {
		t.Fatalf("parse message status: %v", err)
	}
	if ms.SessionID != 9 || ms.MessageID != 42 || ms.Nonce != 5 {
		t.Fatalf("unexpected decode: %+v", ms)
	}
	if !ms.Status.Accepted() {
		t.Fatal("expected Accepted() true for MessageAccepted")
	}
}

func TestParseMessagePayloadRoutesRepliableDatagram(t *testing.T) {
	local := genLocal(t)
	inner, err := dgram.BuildRepliable(local, []byte("knock knock"))
	if err != nil {
		t.Fatalf("build repliable: %v", err)
	}
	framed, err := dgram.GzipFrame(inner, 0, 0, ProtocolRepliableDatagram)
	if err != nil {
		t.Fatalf("gzip frame: %v", err)
	}

	payload := append(wireutil16(1), 0, 0, 0, 0) // sessionId=1, messageId=0
	payload = append(payload, byteLen(len(framed))...)
	payload = append(payload, framed...)

	mp, err := ParseMessagePayload(payload)
	if err != nil {
		t.Fatalf("parse message payload: %v", err)
	}
	if mp.ProtocolID != ProtocolRepliableDatagram {
		t.Fatalf("protocol id = %d, want %d", mp.ProtocolID, ProtocolRepliableDatagram)
	}
	if string(mp.RepliablePayload) != "knock knock" {
		t.Fatalf("repliable payload = %q", mp.RepliablePayload)
	}
	if mp.RepliableSource == nil {
		t.Fatal("expected a recovered repliable source destination")
	}
}

func byteLen(n int) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func TestHostLookupResolverCacheHitSkipsWire(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := &Client{conn: client, reader: bufio.NewReader(client)}
	resolver, err := NewHostLookupResolver(c)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	local := genLocal(t)
	resolver.cache.Add("cached.i2p", &local.Destination)

	// No goroutine is reading the server side; if LookupName tried to write
	// a HostLookup frame, this call would block on the unbuffered pipe and
	// the test would time out.
	done := make(chan struct{})
	go func() {
		d, err := resolver.LookupName(1, "cached.i2p")
		if err != nil {
			t.Errorf("lookup name: %v", err)
		}
		if d != &local.Destination {
			t.Errorf("expected cached destination pointer back")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cache hit should not touch the wire")
	}
}

func TestHostLookupResolverRoundTripsOverWire(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := &Client{conn: client, reader: bufio.NewReader(client)}
	resolver, err := NewHostLookupResolver(c)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	local := genLocal(t)
	serverReader := bufio.NewReader(server)

	// The fake router: read the HostLookup request, write back HostReply.
	go func() {
		frame, err := ReadFrame(serverReader)
		if err != nil || frame.Type != MsgHostLookup {
			return
		}
		reqID := wireutil32(frame.Payload[2:6])
		destBytes, _ := local.Destination.Bytes()
		reply := append(wireutil16(1), byte(reqID>>24), byte(reqID>>16), byte(reqID>>8), byte(reqID))
		reply = append(reply, HostLookupSuccess)
		reply = append(reply, destBytes...)
		_ = WriteFrame(server, MsgHostReply, reply)
	}()

	// A connection's read loop hands HostReply frames to the resolver; here
	// that loop is just this one frame.
	go func() {
		frame, err := c.ReadMessage()
		if err != nil || frame.Type != MsgHostReply {
			return
		}
		_ = resolver.HandleHostReply(frame.Payload)
	}()

	d, err := resolver.LookupName(1, "new.i2p")
	if err != nil {
		t.Fatalf("lookup name: %v", err)
	}
	destBytes, _ := local.Destination.Bytes()
	gotBytes, _ := d.Bytes()
	if string(gotBytes) != string(destBytes) {
		t.Fatal("resolved destination does not match the one the fake router returned")
	}

	if _, ok := resolver.cache.Get("new.i2p"); !ok {
		t.Fatal("successful lookup should populate the cache")
	}
}

func wireutil32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
