// Package streampkt implements the stream-layer packet codec: the header
// and option layout reliable streams use for both data and control
// messages (SYNC, CLOSE, RESET, pure ACKs), including the signature
// back-patching and anti-replay check on stream-opening packets.
package streampkt

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/wireutil"
)

const defaultResendDelay = 3

// Packet is a single stream-layer protocol message.
type Packet struct {
	SendStreamID    uint32
	ReceiveStreamID uint32
	SequenceNum     uint32
	AckThrough      uint32
	Nacks           []uint32
	ResendDelay     uint8
	Flags           wireutil.Flags16

	Delay         uint16
	From          *destination.Destination
	MaxPacketSize uint16
	Signature     []byte

	Payload []byte
}

// Ackable reports whether p participates in sequence/ack bookkeeping.
func (p *Packet) Ackable() bool {
	return Ackable(p.SequenceNum, p.Flags)
}

// RequiresSignature reports whether p's flags mandate a signature.
func (p *Packet) RequiresSignature() bool {
	return RequiresSignature(p.Flags)
}

// Encode serializes p. If its flags require a signature and signer is
// non-nil, the signature region is reserved zero-filled, the buffer is
// assembled, the signature is computed over it with the region still zero,
// and then back-patched into place.
func Encode(p *Packet, signer *destination.LocalDestination) ([]byte, error) {
	if p.ResendDelay == 0 {
		p.ResendDelay = defaultResendDelay
	}

	needsSig := p.RequiresSignature()
	sigLen := 0
	if needsSig {
		if signer == nil {
			return nil, fmt.Errorf("streampkt: packet requires a signature but no signer was given")
		}
		sigLen = signer.SigType.SignatureLen()
	}

	options, sigOffsetInOptions, err := encodeOptions(p, sigLen)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(wireutil.PutUint32(nil, p.SendStreamID))
	buf.Write(wireutil.PutUint32(nil, p.ReceiveStreamID))
	buf.Write(wireutil.PutUint32(nil, p.SequenceNum))
	buf.Write(wireutil.PutUint32(nil, p.AckThrough))

	buf.WriteByte(uint8(len(p.Nacks)))
	for _, n := range p.Nacks {
		buf.Write(wireutil.PutUint32(nil, n))
	}
	buf.WriteByte(p.ResendDelay)

	buf.Write(wireutil.PutUint16(nil, uint16(p.Flags)))
	buf.Write(wireutil.PutUint16(nil, uint16(len(options))))
	headerLen := buf.Len()
	buf.Write(options)
	buf.Write(p.Payload)

	out := buf.Bytes()
	if !needsSig {
		return out, nil
	}

	sigStart := headerLen + sigOffsetInOptions
	sig, err := signer.Sign(out)
	if err != nil {
		return nil, fmt.Errorf("streampkt: sign: %w", err)
	}
	if len(sig) != sigLen {
		return nil, fmt.Errorf("streampkt: signer returned %d bytes, want %d", len(sig), sigLen)
	}
	copy(out[sigStart:sigStart+sigLen], sig)
	return out, nil
}

// encodeOptions serializes the option block in fixed order: delay,
// from-destination, max-packet-size, offline-signature (unsupported, must
// be absent), signature. It returns the block and the byte offset within
// it where the (initially zero-filled) signature lives, if present.
func encodeOptions(p *Packet, sigLen int) (options []byte, sigOffset int, err error) {
	var buf bytes.Buffer

	if p.Flags.Has(FlagDelayRequested) {
		buf.Write(wireutil.PutUint16(nil, p.Delay))
	}
	if p.Flags.Has(FlagFromIncluded) {
		if p.From == nil {
			return nil, 0, fmt.Errorf("streampkt: FROM_INCLUDED set but From is nil")
		}
		fromBytes, err := p.From.Bytes()
		if err != nil {
			return nil, 0, fmt.Errorf("streampkt: encode from: %w", err)
		}
		buf.Write(fromBytes)
	}
	if p.Flags.Has(FlagMaxPacketSizeIncluded) {
		buf.Write(wireutil.PutUint16(nil, p.MaxPacketSize))
	}
	if p.Flags.Has(FlagOfflineSignature) {
		return nil, 0, fmt.Errorf("streampkt: offline signatures are not supported")
	}
	if p.Flags.Has(FlagSignatureIncluded) {
		sigOffset = buf.Len()
		buf.Write(make([]byte, sigLen))
	}
	return buf.Bytes(), sigOffset, nil
}

// Decode parses a stream-layer packet. A FROM-included destination is
// parsed from the options block, whose variable length it determines.
func Decode(data []byte) (*Packet, error) {
	const headerLen = 4 + 4 + 4 + 4
	if len(data) < headerLen+2 {
		return nil, fmt.Errorf("streampkt: packet shorter than fixed header")
	}

	p := &Packet{}
	off := 0
	p.SendStreamID = wireutil.Uint32(data[off:])
	off += 4
	p.ReceiveStreamID = wireutil.Uint32(data[off:])
	off += 4
	p.SequenceNum = wireutil.Uint32(data[off:])
	off += 4
	p.AckThrough = wireutil.Uint32(data[off:])
	off += 4

	if off >= len(data) {
		return nil, fmt.Errorf("streampkt: truncated before nack count")
	}
	nackCount := int(data[off])
	off++
	if off+nackCount*4 > len(data) {
		return nil, fmt.Errorf("streampkt: truncated nack list")
	}
	p.Nacks = make([]uint32, nackCount)
	for i := 0; i < nackCount; i++ {
		p.Nacks[i] = wireutil.Uint32(data[off:])
		off += 4
	}

	if off >= len(data) {
		return nil, fmt.Errorf("streampkt: truncated before resend delay")
	}
	p.ResendDelay = data[off]
	off++

	if off+4 > len(data) {
		return nil, fmt.Errorf("streampkt: truncated before flags/options-len")
	}
	p.Flags = wireutil.Flags16(wireutil.Uint16(data[off:]))
	off += 2
	optionsLen := int(wireutil.Uint16(data[off:]))
	off += 2

	if off+optionsLen > len(data) {
		return nil, fmt.Errorf("streampkt: truncated options block")
	}
	options := data[off : off+optionsLen]
	off += optionsLen

	if err := decodeOptions(p, options); err != nil {
		return nil, err
	}

	p.Payload = append([]byte(nil), data[off:]...)
	return p, nil
}

func decodeOptions(p *Packet, options []byte) error {
	off := 0
	if p.Flags.Has(FlagDelayRequested) {
		if off+2 > len(options) {
			return fmt.Errorf("streampkt: truncated delay option")
		}
		p.Delay = wireutil.Uint16(options[off:])
		off += 2
	}
	if p.Flags.Has(FlagFromIncluded) {
		from, n, err := destination.Parse(options[off:])
		if err != nil {
			return fmt.Errorf("streampkt: decode from option: %w", err)
		}
		p.From = from
		off += n
	}
	if p.Flags.Has(FlagMaxPacketSizeIncluded) {
		if off+2 > len(options) {
			return fmt.Errorf("streampkt: truncated max-packet-size option")
		}
		p.MaxPacketSize = wireutil.Uint16(options[off:])
		off += 2
	}
	if p.Flags.Has(FlagOfflineSignature) {
		return fmt.Errorf("streampkt: offline signatures are not supported")
	}
	if p.Flags.Has(FlagSignatureIncluded) {
		p.Signature = append([]byte(nil), options[off:]...)
	}
	return nil
}

// Verify checks p's signature, if one is required, against remote (the
// packet's claimed sender). my is this side's own destination, used for the
// SYNC anti-replay check.
func Verify(raw []byte, p *Packet, remote *destination.Destination, my *destination.Destination) (bool, error) {
	if !p.RequiresSignature() {
		return true, nil
	}
	if p.Signature == nil {
		return false, nil
	}

	zeroed, sigOffset, err := zeroSignatureRegion(raw)
	if err != nil {
		return false, err
	}
	ok, err := remote.Verify(zeroed, p.Signature)
	if err != nil || !ok {
		return false, err
	}
	_ = sigOffset

	if p.Flags.Has(FlagSync) && len(p.Nacks) == 8 {
		myBytes, err := my.Bytes()
		if err != nil {
			return false, err
		}
		want := sha256.Sum256(myBytes)
		for i := 0; i < 8; i++ {
			got := wireutil.Uint32(want[i*4:])
			if p.Nacks[i] != got {
				return false, nil
			}
		}
	}
	return true, nil
}

// zeroSignatureRegion returns a copy of raw with the signature bytes
// (re-derived from the packet's own flag layout) zeroed, matching the
// buffer that was actually signed during Encode.
func zeroSignatureRegion(raw []byte) ([]byte, int, error) {
	const headerLen = 4 + 4 + 4 + 4
	if len(raw) < headerLen+1 {
		return nil, 0, fmt.Errorf("streampkt: packet too short")
	}
	off := headerLen
	nackCount := int(raw[off])
	off += 1 + nackCount*4 + 1 // nack count + nacks + resend delay
	if off+4 > len(raw) {
		return nil, 0, fmt.Errorf("streampkt: packet too short for flags/options-len")
	}
	flags := wireutil.Flags16(wireutil.Uint16(raw[off:]))
	off += 2
	optionsLen := int(wireutil.Uint16(raw[off:]))
	off += 2
	optionsStart := off

	out := append([]byte(nil), raw...)

	cursor := optionsStart
	if flags.Has(FlagDelayRequested) {
		cursor += 2
	}
	if flags.Has(FlagFromIncluded) {
		d, n, err := destination.Parse(out[cursor:])
		if err != nil {
			return nil, 0, fmt.Errorf("streampkt: zero-sig: decode from: %w", err)
		}
		_ = d
		cursor += n
	}
	if flags.Has(FlagMaxPacketSizeIncluded) {
		cursor += 2
	}
	if flags.Has(FlagOfflineSignature) {
		return nil, 0, fmt.Errorf("streampkt: offline signatures are not supported")
	}
	if flags.Has(FlagSignatureIncluded) {
		sigLen := (optionsStart + optionsLen) - cursor
		if sigLen < 0 || cursor+sigLen > len(out) {
			return nil, 0, fmt.Errorf("streampkt: inconsistent signature region")
		}
		for i := 0; i < sigLen; i++ {
			out[cursor+i] = 0
		}
		return out, cursor, nil
	}
	return out, 0, fmt.Errorf("streampkt: signature required but SIGNATURE_INCLUDED not set")
}
