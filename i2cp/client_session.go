package i2cp

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/dgram"
	"github.com/go-i2p/go-i2p-client/streaming"
	"github.com/go-i2p/go-i2p-client/streampkt"
)

// RepliableDatagram is one received, signature-verified repliable datagram.
type RepliableDatagram struct {
	Source     *destination.Destination
	SourcePort uint16
	DestPort   uint16
	Payload    []byte
}

// RawDatagram is one received raw datagram. The wire format carries no
// sender identity or port filtering (see spec's raw-datagram open question).
type RawDatagram struct {
	SourcePort uint16
	DestPort   uint16
	Payload    []byte
}

// Session is a single router-control session: the handshake and
// CreateSession have completed by the time OpenSession returns; leasesets
// are built and sent from the read loop whenever the router requests one.
// One read loop demultiplexes every incoming message; writes come from that
// loop and from application goroutines, serialized by Client.WriteMessage.
type Session struct {
	client *Client
	local  *destination.LocalDestination

	sessionID uint16

	streams    *streaming.Manager
	hostLookup *HostLookupResolver

	mu       sync.Mutex
	nonce    uint32
	pending  map[uint32]chan MessageStatus
	leases   []Lease2

	Streams            chan *streaming.Stream
	RepliableDatagrams chan RepliableDatagram
	RawDatagrams       chan RawDatagram

	closed chan struct{}
}

// OpenSession dials addr, performs the GetDate/SetDate handshake, creates a
// session for local, and returns once the router reports the session
// CREATED. It does not wait for a leaseset: the read loop answers each
// RequestVariableLeaseSet as it arrives. Each unsolicited SYNC that produces
// a new responder Stream is delivered on the Streams channel.
func OpenSession(addr string, local *destination.LocalDestination, extra map[string]string) (*Session, error) {
	client, err := Dial(addr)
	if err != nil {
		return nil, err
	}

	s := &Session{
		client:             client,
		local:              local,
		pending:            make(map[uint32]chan MessageStatus),
		Streams:            make(chan *streaming.Stream, 16),
		RepliableDatagrams: make(chan RepliableDatagram, 64),
		RawDatagrams:       make(chan RawDatagram, 64),
		closed:             make(chan struct{}),
	}
	s.streams = streaming.NewManager(local, s, func(st *streaming.Stream) {
		select {
		case s.Streams <- st:
		default:
			log.Warn("i2cp: accepted-stream channel full, dropping stream")
		}
	})

	hostLookup, err := NewHostLookupResolver(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	s.hostLookup = hostLookup

	if err := s.createSession(extra); err != nil {
		client.Close()
		return nil, err
	}

	go s.readLoop()
	return s, nil
}

func (s *Session) createSession(extra map[string]string) error {
	payload, err := BuildCreateSession(s.local, extra, time.Now())
	if err != nil {
		return err
	}
	if err := s.client.WriteMessage(MsgCreateSession, payload); err != nil {
		return fmt.Errorf("i2cp: send CreateSession: %w", err)
	}

	for {
		frame, err := s.client.ReadMessage()
		if err != nil {
			return fmt.Errorf("i2cp: waiting for SessionStatus: %w", err)
		}
		if frame.Type != MsgSessionStatus {
			log.WithField("type", frame.Type).Debug("i2cp: ignoring message while awaiting SessionStatus")
			continue
		}
		sessionID, status, err := ParseSessionStatus(frame.Payload)
		if err != nil {
			return err
		}
		if status != SessionCreated {
			return fmt.Errorf("i2cp: session creation refused: %s", status)
		}
		s.sessionID = sessionID
		return nil
	}
}

// readLoop is the session's single reader: every router message is
// demultiplexed from here, and every handler that needs to write back
// (leaseset replies, pure stream ACKs) does so inline rather than handing
// work to another goroutine, preserving single-writer ownership of the
// connection.
func (s *Session) readLoop() {
	defer close(s.closed)
	for {
		frame, err := s.client.ReadMessage()
		if err != nil {
			log.WithError(err).Warn("i2cp: read loop terminated")
			s.streams.Shutdown()
			return
		}
		s.dispatch(frame)
	}
}

func (s *Session) dispatch(frame Frame) {
	switch frame.Type {
	case MsgRequestVariableLeaseSet:
		s.handleLeaseSetRequest(frame.Payload)
	case MsgMessagePayload:
		s.handleMessagePayload(frame.Payload)
	case MsgMessageStatus:
		s.handleMessageStatus(frame.Payload)
	case MsgHostReply:
		if err := s.hostLookup.HandleHostReply(frame.Payload); err != nil {
			log.WithError(err).Warn("i2cp: host reply handling failed")
		}
	case MsgSessionStatus:
		log.Debug("i2cp: session status update after initial creation")
	default:
		log.WithField("type", frame.Type).Debug("i2cp: unrecognized message type, ignored")
	}
}

func (s *Session) handleLeaseSetRequest(payload []byte) {
	if len(payload) < 3 {
		log.Warn("i2cp: RequestVariableLeaseSet payload too short")
		return
	}
	tunnelCount := int(payload[2])
	off := 3
	leases := make([]Lease2, 0, tunnelCount)
	for i := 0; i < tunnelCount; i++ {
		if off+44 > len(payload) {
			log.Warn("i2cp: RequestVariableLeaseSet truncated lease list")
			return
		}
		l1, err := ParseLease1(payload[off : off+44])
		if err != nil {
			log.WithError(err).Warn("i2cp: parse lease1 failed")
			return
		}
		leases = append(leases, ToLease2(l1))
		off += 44
	}

	s.mu.Lock()
	s.leases = leases
	s.mu.Unlock()

	body, err := BuildLeaseSet2(s.local, leases, time.Now())
	if err != nil {
		log.WithError(err).Warn("i2cp: build leaseset2 failed")
		return
	}
	if err := s.client.WriteMessage(MsgCreateLeaseSet2, body); err != nil {
		log.WithError(err).Warn("i2cp: send CreateLeaseSet2 failed")
	}
}

func (s *Session) handleMessageStatus(payload []byte) {
	status, err := ParseMessageStatus(payload)
	if err != nil {
		log.WithError(err).Warn("i2cp: parse MessageStatus failed")
		return
	}
	s.mu.Lock()
	ch, ok := s.pending[status.Nonce]
	if ok && !status.Status.Accepted() {
		delete(s.pending, status.Nonce)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- status:
	default:
	}
}

func (s *Session) handleMessagePayload(payload []byte) {
	mp, err := ParseMessagePayload(payload)
	if err != nil {
		log.WithError(err).Warn("i2cp: parse MessagePayload failed")
		return
	}

	switch mp.ProtocolID {
	case ProtocolStreaming:
		s.handleStreamPacket(mp)
	case ProtocolRepliableDatagram:
		d := RepliableDatagram{
			Source:     mp.RepliableSource,
			SourcePort: mp.SourcePort,
			DestPort:   mp.DestPort,
			Payload:    mp.RepliablePayload,
		}
		select {
		case s.RepliableDatagrams <- d:
		default:
			log.Warn("i2cp: repliable datagram channel full, dropping")
		}
	case ProtocolRawDatagram:
		d := RawDatagram{SourcePort: mp.SourcePort, DestPort: mp.DestPort, Payload: mp.RawPayload}
		select {
		case s.RawDatagrams <- d:
		default:
			log.Warn("i2cp: raw datagram channel full, dropping")
		}
	default:
		log.WithField("protocol", mp.ProtocolID).Debug("i2cp: unrecognized inner protocol id, dropped")
	}
}

func (s *Session) handleStreamPacket(mp *MessagePayload) {
	p := mp.StreamPacket
	var remote *destination.Destination
	if p.From != nil {
		remote = p.From
	} else {
		remote = s.streamRemote(p)
	}
	if remote == nil {
		log.Warn("i2cp: dropping stream packet with no known remote destination")
		return
	}
	s.streams.Dispatch(mp.Raw, p, remote)
}

// streamRemote resolves the sender of a stream packet that didn't carry a
// FROM option, by finding the existing stream it belongs to and reusing its
// remote. This is always a SYNC-ACK or later packet on an already-open
// connection.
func (s *Session) streamRemote(p *streampkt.Packet) *destination.Destination {
	return s.streams.RemoteFor(p.ReceiveStreamID, p.SendStreamID)
}

// SendStreamPacket implements streaming.Transport: it gzip-frames raw as a
// STREAMING-protocol payload and hands it to the router via SendMessage.
func (s *Session) SendStreamPacket(remote *destination.Destination, raw []byte) error {
	framed, err := dgram.GzipFrame(raw, 0, 0, ProtocolStreaming)
	if err != nil {
		return err
	}
	_, err = s.send(remote, framed)
	return err
}

// OpenStream creates and opens a new initiator stream to remote, writing
// firstChunk as the SYNC packet's payload.
func (s *Session) OpenStream(remote *destination.Destination, firstChunk []byte) (*streaming.Stream, error) {
	return s.streams.OpenStream(remote, firstChunk)
}

// SendRepliable builds and sends a signed repliable datagram to remote,
// gzip-framed with the given source/destination ports.
func (s *Session) SendRepliable(remote *destination.Destination, fromPort, toPort uint16, payload []byte) error {
	envelope, err := dgram.BuildRepliable(s.local, payload)
	if err != nil {
		return err
	}
	framed, err := dgram.GzipFrame(envelope, fromPort, toPort, ProtocolRepliableDatagram)
	if err != nil {
		return err
	}
	_, err = s.send(remote, framed)
	return err
}

// SendRaw sends payload to remote as an unsigned raw datagram.
func (s *Session) SendRaw(remote *destination.Destination, fromPort, toPort uint16, payload []byte) error {
	framed, err := dgram.GzipFrame(dgram.BuildRaw(payload), fromPort, toPort, ProtocolRawDatagram)
	if err != nil {
		return err
	}
	_, err = s.send(remote, framed)
	return err
}

// send assembles and writes a SendMessage with a freshly allocated nonce,
// returning a channel that receives every MessageStatus the router reports
// for it (ACCEPTED, then a terminal success/failure code).
func (s *Session) send(remote *destination.Destination, framedPayload []byte) (<-chan MessageStatus, error) {
	nonce := atomic.AddUint32(&s.nonce, 1)
	payload, err := BuildSendMessage(s.sessionID, remote, framedPayload, nonce)
	if err != nil {
		return nil, err
	}

	ch := make(chan MessageStatus, 4)
	s.mu.Lock()
	s.pending[nonce] = ch
	s.mu.Unlock()

	if err := s.client.WriteMessage(MsgSendMessage, payload); err != nil {
		s.mu.Lock()
		delete(s.pending, nonce)
		s.mu.Unlock()
		return nil, fmt.Errorf("i2cp: send SendMessage: %w", err)
	}
	return ch, nil
}

// LookupName resolves an I2P hostname to a destination via the router's
// host lookup, consulting the in-memory cache first.
func (s *Session) LookupName(name string) (*destination.Destination, error) {
	return s.hostLookup.LookupName(s.sessionID, name)
}

// Done is closed once the session's read loop exits, e.g. on transport
// failure.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

// Close tears the session down: every open stream is reset and the
// underlying connection is closed without a clean Disconnect.
func (s *Session) Close() error {
	s.streams.Shutdown()
	return s.client.Close()
}
