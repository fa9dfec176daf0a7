// Package streaming implements the reliable ordered-stream engine: a
// per-connection state machine layered on top of unreliable stream-layer
// packets (package streampkt). It owns sequence numbering, the send window
// with retransmission, the receive reordering buffer, ack/nack generation,
// and the close handshake.
package streaming

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-i2p/crypto/rand"
	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/streampkt"
	"github.com/go-i2p/go-i2p-client/wireutil"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// State is one of the stream lifecycle states.
type State int

const (
	StateInit State = iota
	StateSynSent
	StateEstablished
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateSynSent:
		return "SYN_SENT"
	case StateEstablished:
		return "ESTABLISHED"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

const (
	defaultResendDelay = 3 * time.Second
	resendCeiling      = 300 * time.Second
)

// Transport is the minimum send capability a Stream needs from its owning
// session: handing an encoded stream packet to the router, addressed to
// remote.
type Transport interface {
	SendStreamPacket(remote *destination.Destination, raw []byte) error
}

// sentPacket tracks one outstanding (unacked) packet.
type sentPacket struct {
	packet  *streampkt.Packet
	raw     []byte
	sentAt  time.Time
	timer   *time.Timer
	done    func(error)
	retired bool
}

// Stream is one reliable connection.
type Stream struct {
	mu sync.Mutex

	local     *destination.LocalDestination
	remote    *destination.Destination
	transport Transport

	streamID       uint32
	remoteStreamID uint32
	initiator      bool

	ourSequenceNum int64 // next sequence number to assign
	ackThrough     int64 // highest contiguous received sequence, -1 initially

	missingPackets map[uint32]struct{}
	receivedQueue  map[uint32]*streampkt.Packet
	sentPackets    map[uint32]*sentPacket

	closeSent            bool
	remoteRequestedClose bool
	connected            bool
	state                State

	incoming chan []byte // reassembled, ordered payload bytes for the application
	closed   chan struct{}
	closeErr error

	onClosing func()
}

// NewInitiator creates a stream that will open a connection to remote.
func NewInitiator(local *destination.LocalDestination, remote *destination.Destination, transport Transport) (*Stream, error) {
	id, err := randomStreamID()
	if err != nil {
		return nil, err
	}
	return newStream(local, remote, transport, id, true), nil
}

// NewResponder creates a stream in response to an incoming SYNC packet
// whose ReceiveStreamID is localStreamID.
func NewResponder(local *destination.LocalDestination, remote *destination.Destination, transport Transport, localStreamID uint32) *Stream {
	return newStream(local, remote, transport, localStreamID, false)
}

func newStream(local *destination.LocalDestination, remote *destination.Destination, transport Transport, id uint32, initiator bool) *Stream {
	return &Stream{
		local:          local,
		remote:         remote,
		transport:      transport,
		streamID:       id,
		initiator:      initiator,
		ackThrough:     -1,
		missingPackets: make(map[uint32]struct{}),
		receivedQueue:  make(map[uint32]*streampkt.Packet),
		sentPackets:    make(map[uint32]*sentPacket),
		incoming:       make(chan []byte, 64),
		closed:         make(chan struct{}),
		state:          StateInit,
	}
}

func randomStreamID() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("streaming: random stream id: %w", err)
	}
	n := be32(buf[:]) % 4_000_000_000
	if n == 0 {
		n = 1
	}
	return n, nil
}

// LocalStreamID returns this stream's local id.
func (s *Stream) LocalStreamID() uint32 {
	return s.streamID
}

// State returns the current lifecycle state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Incoming returns the channel of reassembled, ordered payload chunks.
func (s *Stream) Incoming() <-chan []byte {
	return s.incoming
}

// Done is closed once the stream has fully torn down.
func (s *Stream) Done() <-chan struct{} {
	return s.closed
}

// Open sends the initial SYNC packet carrying the first chunk of data (may
// be empty).
func (s *Stream) Open(firstChunk []byte) error {
	s.mu.Lock()
	if s.state != StateInit {
		s.mu.Unlock()
		return fmt.Errorf("streaming: stream already open")
	}
	s.state = StateSynSent
	seq := uint32(0)
	s.ourSequenceNum = 1
	// The responder's sequence 0 is only ever a pure ACK, so its first
	// data packet (sequence 1) is the next one in order.
	s.ackThrough = 0

	nacks, err := antiReplayNacks(s.remote)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	flags := uint16(0)
	flags |= streampkt.FlagSync
	flags |= streampkt.FlagNoAck
	flags |= streampkt.FlagSignatureIncluded
	flags |= streampkt.FlagFromIncluded

	p := &streampkt.Packet{
		SendStreamID:    0,
		ReceiveStreamID: s.streamID,
		SequenceNum:     seq,
		AckThrough:      0,
		Nacks:           nacks,
		Flags:           wireutil.Flags16(flags),
		From:            &s.local.Destination,
		Payload:         firstChunk,
	}
	s.mu.Unlock()
	return s.sendTracked(p)
}

func antiReplayNacks(remote *destination.Destination) ([]uint32, error) {
	h, err := remote.Hash()
	if err != nil {
		return nil, fmt.Errorf("streaming: anti-replay hash: %w", err)
	}
	nacks := make([]uint32, 8)
	for i := 0; i < 8; i++ {
		nacks[i] = be32(h[i*4 : i*4+4])
	}
	return nacks, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
