package streampkt

import "github.com/go-i2p/go-i2p-client/wireutil"

// Flag bits for the stream-layer packet header.
const (
	FlagSync                  uint16 = 1 << 0
	FlagClose                 uint16 = 1 << 1
	FlagReset                 uint16 = 1 << 2
	FlagSignatureIncluded     uint16 = 1 << 3
	FlagSignatureRequested    uint16 = 1 << 4
	FlagFromIncluded          uint16 = 1 << 5
	FlagDelayRequested        uint16 = 1 << 6
	FlagMaxPacketSizeIncluded uint16 = 1 << 7
	FlagProfileInteractive    uint16 = 1 << 8
	FlagEcho                  uint16 = 1 << 9
	FlagNoAck                 uint16 = 1 << 10
	FlagOfflineSignature      uint16 = 1 << 11
)

// RequiresSignature reports whether any flag bit on f mandates a signature
// over the packet (SYNC, CLOSE, RESET, ECHO).
func RequiresSignature(f wireutil.Flags16) bool {
	return f.Has(FlagSync) || f.Has(FlagClose) || f.Has(FlagReset) || f.Has(FlagEcho)
}

// Ackable reports whether a packet with this sequence number and flag word
// participates in the sequence/ack accounting (anything but a pure ACK).
func Ackable(sequenceNum uint32, f wireutil.Flags16) bool {
	return sequenceNum != 0 || f.Has(FlagSync)
}
