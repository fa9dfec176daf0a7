package streaming

import (
	"sync"

	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/streampkt"
)

// Manager owns every Stream belonging to one session, keyed by local
// stream id, and demultiplexes inbound packets to the right one — creating
// a new responder Stream on an unmatched SYNC. It is the piece that keeps
// Session and Stream from holding back-pointers to each other: Session
// holds a Manager, Streams hold only their own local id.
type Manager struct {
	mu        sync.Mutex
	local     *destination.LocalDestination
	transport Transport
	streams   map[uint32]*Stream
	onAccept  func(*Stream)
}

// NewManager creates a Manager for sessions identified by local.
func NewManager(local *destination.LocalDestination, transport Transport, onAccept func(*Stream)) *Manager {
	return &Manager{
		local:     local,
		transport: transport,
		streams:   make(map[uint32]*Stream),
		onAccept:  onAccept,
	}
}

// OpenStream creates and opens a new initiator Stream to remote.
func (m *Manager) OpenStream(remote *destination.Destination, firstChunk []byte) (*Stream, error) {
	s, err := NewInitiator(m.local, remote, m.transport)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.streams[s.LocalStreamID()] = s
	m.mu.Unlock()

	if err := s.Open(firstChunk); err != nil {
		m.mu.Lock()
		delete(m.streams, s.LocalStreamID())
		m.mu.Unlock()
		return nil, err
	}
	go m.reapOnDone(s)
	return s, nil
}

// RemoteFor returns the remote destination already bound to the stream
// identified by receiveStreamID (or, failing that, sendStreamID), or nil if
// no such stream is open. Used by a transport that receives a stream
// packet without an inline FROM option, which is every packet after the
// opening SYNC.
func (m *Manager) RemoteFor(receiveStreamID, sendStreamID uint32) *destination.Destination {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.streams[receiveStreamID]; ok {
		return s.remote
	}
	for _, cand := range m.streams {
		if cand.remoteStreamID == sendStreamID && sendStreamID != 0 {
			return cand.remote
		}
	}
	return nil
}

// Dispatch routes one decoded incoming packet to the stream it belongs to,
// per receiveStreamId then sendStreamId, instantiating a responder on an
// unmatched SYNC with sendStreamId==0.
func (m *Manager) Dispatch(raw []byte, p *streampkt.Packet, remote *destination.Destination) {
	m.mu.Lock()
	s, ok := m.streams[p.ReceiveStreamID]
	if !ok {
		for _, cand := range m.streams {
			if cand.remoteStreamID == p.SendStreamID && p.SendStreamID != 0 {
				s, ok = cand, true
				break
			}
		}
	}

	var fresh *Stream
	if !ok {
		if !p.Flags.Has(streampkt.FlagSync) || p.SendStreamID != 0 {
			m.mu.Unlock()
			log.Warn("streaming: packet for unknown stream dropped")
			return
		}
		fresh = NewResponder(m.local, remote, m.transport, p.ReceiveStreamID)
		m.streams[fresh.LocalStreamID()] = fresh
		s = fresh
	}
	m.mu.Unlock()

	verified, err := streampkt.Verify(raw, p, remote, &m.local.Destination)
	if err != nil || !verified {
		log.Warn("streaming: dropping packet that failed signature verification")
		return
	}

	s.HandlePacket(p)

	if fresh != nil {
		go m.reapOnDone(fresh)
		if m.onAccept != nil {
			m.onAccept(fresh)
		}
	}
}

func (m *Manager) reapOnDone(s *Stream) {
	<-s.Done()
	m.mu.Lock()
	delete(m.streams, s.LocalStreamID())
	m.mu.Unlock()
}

// Shutdown resets every open stream, e.g. on session teardown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	streams := make([]*Stream, 0, len(m.streams))
	for _, s := range m.streams {
		streams = append(streams, s)
	}
	m.mu.Unlock()

	for _, s := range streams {
		s.Reset()
	}
}
