package streaming

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-i2p/go-i2p-client/streampkt"
	"github.com/go-i2p/go-i2p-client/wireutil"
	"github.com/sirupsen/logrus"
)

// sendTracked encodes and sends p, then — for ackable packets — registers it
// in sentPackets and arms its retransmission timer. done, if non-nil, fires
// exactly once when the packet is retired or the stream is destroyed.
func (s *Stream) sendTracked(p *streampkt.Packet, done ...func(error)) error {
	raw, err := streampkt.Encode(p, s.local)
	if err != nil {
		return fmt.Errorf("streaming: encode: %w", err)
	}
	if err := s.transport.SendStreamPacket(s.remote, raw); err != nil {
		return fmt.Errorf("streaming: send: %w", err)
	}

	if !p.Ackable() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sp := &sentPacket{packet: p, raw: raw, sentAt: time.Now()}
	if len(done) > 0 {
		sp.done = done[0]
	}
	s.sentPackets[p.SequenceNum] = sp
	s.armRetransmit(p.SequenceNum, sp)
	return nil
}

// armRetransmit starts sp's retransmission timer. Each fire resends raw and
// reschedules, until the 300s ceiling from sentAt is reached or the packet
// is retired.
func (s *Stream) armRetransmit(seq uint32, sp *sentPacket) {
	delay := time.Duration(sp.packet.ResendDelay) * time.Second
	if delay <= 0 {
		delay = defaultResendDelay
	}
	sp.timer = time.AfterFunc(delay, func() { s.onRetransmitFire(seq) })
}

func (s *Stream) onRetransmitFire(seq uint32) {
	s.mu.Lock()
	sp, ok := s.sentPackets[seq]
	if !ok || sp.retired {
		s.mu.Unlock()
		return
	}
	if time.Since(sp.sentAt) >= resendCeiling {
		s.mu.Unlock()
		s.destroy(fmt.Errorf("streaming: packet resend failed"))
		return
	}
	raw := sp.raw
	s.mu.Unlock()

	if err := s.transport.SendStreamPacket(s.remote, raw); err != nil {
		log.WithError(err).Warn("streaming: retransmit failed")
	}

	s.mu.Lock()
	if sp, ok := s.sentPackets[seq]; ok && !sp.retired {
		s.armRetransmit(seq, sp)
	}
	s.mu.Unlock()
}

// HandlePacket processes an incoming, already-decoded stream packet whose
// signature has already been verified by the caller (or that requires
// none).
func (s *Stream) HandlePacket(p *streampkt.Packet) {
	s.mu.Lock()

	if !s.validSender(p) {
		s.mu.Unlock()
		log.Warn("streaming: dropping packet with mismatched stream id")
		return
	}

	if s.remoteStreamID == 0 && p.SendStreamID != 0 {
		s.remoteStreamID = p.SendStreamID
	}

	if s.state == StateInit || s.state == StateSynSent {
		s.state = StateEstablished
		s.connected = true
	}

	s.retireAcked(p)

	if p.Flags.Has(streampkt.FlagReset) {
		s.mu.Unlock()
		s.destroy(fmt.Errorf("streaming: connection reset by remote"))
		return
	}

	if p.Flags.Has(streampkt.FlagClose) {
		s.remoteRequestedClose = true
	}

	if p.Ackable() {
		s.receiveAckable(p)
	}

	closing := p.Flags.Has(streampkt.FlagClose)
	s.mu.Unlock()

	if closing {
		s.sendAck(p.SequenceNum, true)
		s.maybeFinish()
	} else if p.Ackable() {
		s.sendAck(p.SequenceNum, false)
	}
}

func (s *Stream) validSender(p *streampkt.Packet) bool {
	if p.SendStreamID == 0 {
		return true
	}
	if p.SendStreamID == s.remoteStreamID {
		return true
	}
	return p.ReceiveStreamID == s.streamID
}

// retireAcked drops every sentPacket at or below p.AckThrough that isn't in
// p.Nacks, firing its completion callback.
func (s *Stream) retireAcked(p *streampkt.Packet) {
	nacked := make(map[uint32]struct{}, len(p.Nacks))
	for _, n := range p.Nacks {
		nacked[n] = struct{}{}
	}
	for seq, sp := range s.sentPackets {
		if sp.retired {
			continue
		}
		if seq > p.AckThrough {
			continue
		}
		if _, isNacked := nacked[seq]; isNacked {
			continue
		}
		sp.retired = true
		if sp.timer != nil {
			sp.timer.Stop()
		}
		delete(s.sentPackets, seq)
		if sp.done != nil {
			sp.done(nil)
		}
	}
}

// receiveAckable applies the reassembly rule for one ackable incoming
// packet under s.mu already held.
func (s *Stream) receiveAckable(p *streampkt.Packet) {
	n := int64(p.SequenceNum)
	delete(s.missingPackets, p.SequenceNum)

	if n == s.ackThrough+1 {
		s.deliver(p)
		s.ackThrough = n
		s.drainContiguous()
		return
	}
	if n > s.ackThrough+1 {
		for m := s.ackThrough + 1; m < n; m++ {
			s.missingPackets[uint32(m)] = struct{}{}
		}
		s.receivedQueue[p.SequenceNum] = p
	}
	// n <= ackThrough: a retransmitted duplicate already delivered; ignore.
}

func (s *Stream) drainContiguous() {
	for {
		next := uint32(s.ackThrough + 1)
		p, ok := s.receivedQueue[next]
		if !ok {
			return
		}
		delete(s.receivedQueue, next)
		s.deliver(p)
		s.ackThrough++
	}
}

func (s *Stream) deliver(p *streampkt.Packet) {
	if len(p.Payload) == 0 {
		return
	}
	select {
	case s.incoming <- p.Payload:
	default:
		log.Warn("streaming: incoming buffer full, dropping payload")
	}
}

// sendAck emits a pure ACK (or the close-handshake's final ACK) covering
// the current ackThrough/missingPackets state.
func (s *Stream) sendAck(triggeringSeq uint32, closeAck bool) {
	s.mu.Lock()
	ackThrough := s.ackThrough
	if int64(triggeringSeq) > ackThrough {
		ackThrough = int64(triggeringSeq)
	}

	var nacks []uint32
	for m := range s.missingPackets {
		if int64(m) > s.ackThrough && m < triggeringSeq {
			nacks = append(nacks, m)
		}
	}
	sort.Slice(nacks, func(i, j int) bool { return nacks[i] < nacks[j] })

	flags := wireutil.Flags16(0)
	if closeAck {
		flags = flags.Set(streampkt.FlagClose, true)
		flags = flags.Set(streampkt.FlagSignatureIncluded, true)
	}

	p := &streampkt.Packet{
		SendStreamID:    s.streamID,
		ReceiveStreamID: s.remoteStreamID,
		SequenceNum:     0,
		AckThrough:      uint32(ackThrough),
		Nacks:           nacks,
		Flags:           flags,
	}
	s.mu.Unlock()

	raw, err := streampkt.Encode(p, s.local)
	if err != nil {
		log.WithError(err).Warn("streaming: encode ack failed")
		return
	}
	if err := s.transport.SendStreamPacket(s.remote, raw); err != nil {
		log.WithError(err).Warn("streaming: send ack failed")
	}
}

// Write sends chunk as the next sequenced data packet. done, if given,
// fires once the packet is acked or the stream is destroyed first.
func (s *Stream) Write(chunk []byte, done ...func(error)) error {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateClosing {
		s.mu.Unlock()
		return fmt.Errorf("streaming: write on closed stream")
	}
	seq := uint32(s.ourSequenceNum)
	if s.ourSequenceNum == 0 {
		seq = 1
	}
	s.ourSequenceNum = int64(seq) + 1
	ackThrough := uint32(0)
	if s.ackThrough >= 0 {
		ackThrough = uint32(s.ackThrough)
	}
	s.mu.Unlock()

	p := &streampkt.Packet{
		SendStreamID:    s.streamID,
		ReceiveStreamID: s.remoteStreamID,
		SequenceNum:     seq,
		AckThrough:      ackThrough,
		Payload:         chunk,
	}
	return s.sendTracked(p, done...)
}

// Close sends a CLOSE packet and transitions toward CLOSING.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closeSent || s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.closeSent = true
	s.state = StateClosing
	seq := uint32(s.ourSequenceNum)
	s.ourSequenceNum++
	s.mu.Unlock()

	flags := wireutil.Flags16(0).
		Set(streampkt.FlagClose, true).
		Set(streampkt.FlagSignatureIncluded, true)

	p := &streampkt.Packet{
		SendStreamID:    s.streamID,
		ReceiveStreamID: s.remoteStreamID,
		SequenceNum:     seq,
		Flags:           flags,
	}
	if err := s.sendTracked(p); err != nil {
		return err
	}
	s.maybeFinish()
	return nil
}

// maybeFinish destroys the stream once sentPackets is empty and both sides
// have observed a close.
func (s *Stream) maybeFinish() {
	s.mu.Lock()
	done := s.closeSent && s.remoteRequestedClose && len(s.sentPackets) == 0
	s.mu.Unlock()
	if done {
		s.destroy(nil)
	}
}

// destroy cancels every outstanding retry timer and marks the stream
// CLOSED exactly once.
func (s *Stream) destroy(err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.closeErr = err
	for _, sp := range s.sentPackets {
		if sp.timer != nil {
			sp.timer.Stop()
		}
		if sp.done != nil {
			sp.done(fmt.Errorf("streaming: stream destroyed"))
		}
	}
	s.sentPackets = map[uint32]*sentPacket{}
	s.mu.Unlock()

	close(s.closed)
	if err != nil {
		log.WithFields(logrus.Fields{"streamId": s.streamID}).WithError(err).Warn("streaming: stream destroyed")
	}
}

// Reset immediately tears the stream down without a close handshake.
func (s *Stream) Reset() {
	s.destroy(fmt.Errorf("streaming: reset"))
}

// Err returns the error, if any, that caused destruction.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}
