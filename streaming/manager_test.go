package streaming

import (
	"testing"
	"time"

	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/streampkt"
)

// loopbackTransport hands anything sent straight back through Manager.Dispatch,
// as if it had bounced off a router back to the opposite peer. It is used to
// drive a responder Manager purely from an initiator's outgoing SYNC packet.
type loopbackTransport struct {
	peerManager *Manager
	peerRemote  *destination.Destination
}

func (l *loopbackTransport) SendStreamPacket(_ *destination.Destination, raw []byte) error {
	p, err := streampkt.Decode(raw)
	if err != nil {
		return err
	}
	l.peerManager.Dispatch(raw, p, l.peerRemote)
	return nil
}

func TestUnmatchedSyncCreatesResponderAndFiresAccept(t *testing.T) {
	initiatorLocal := mustLocalDest(t)
	responderLocal := mustLocalDest(t)

	accepted := make(chan *Stream, 1)
	responderTransport := &loopbackTransport{}
	responderManager := NewManager(responderLocal, responderTransport, func(s *Stream) {
		accepted <- s
	})

	initiatorTransport := &loopbackTransport{peerManager: responderManager, peerRemote: &initiatorLocal.Destination}
	initiatorManager := NewManager(initiatorLocal, initiatorTransport, nil)

	// The responder's replies loop back to the initiator manager too.
	responderTransport.peerManager = initiatorManager
	responderTransport.peerRemote = &responderLocal.Destination

	_, err := initiatorManager.OpenStream(&responderLocal.Destination, []byte("hello"))
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}

	select {
	case s := <-accepted:
		if s.State() != StateEstablished {
			t.Fatalf("expected accepted stream to be ESTABLISHED, got %s", s.State())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for responder's accept callback")
	}
}
