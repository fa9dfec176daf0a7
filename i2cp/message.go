package i2cp

import (
	"fmt"

	"github.com/go-i2p/go-i2p-client/destination"
	"github.com/go-i2p/go-i2p-client/dgram"
	"github.com/go-i2p/go-i2p-client/streampkt"
	"github.com/go-i2p/go-i2p-client/wireutil"
)

// BuildSendMessage assembles a SendMessage payload: sessionId || destination
// || u32-length-prefixed payload || u32 nonce.
func BuildSendMessage(sessionID uint16, dest *destination.Destination, payload []byte, nonce uint32) ([]byte, error) {
	destBytes, err := dest.Bytes()
	if err != nil {
		return nil, fmt.Errorf("i2cp: send message destination bytes: %w", err)
	}

	out := wireutil.PutUint16(nil, sessionID)
	out = append(out, destBytes...)
	out = wireutil.PutUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	out = wireutil.PutUint32(out, nonce)
	return out, nil
}

// MessageStatus is a decoded MessageStatus payload.
type MessageStatus struct {
	SessionID uint16
	MessageID uint32
	Status    MessageStatusCode
	Nonce     uint32
}

// ParseMessageStatus decodes a MessageStatus payload: u16 sessionId || u32
// messageId || u8 status || u32 size || u32 nonce. size is ignored since
// BuildSendMessage already knows the payload length it sent.
func ParseMessageStatus(payload []byte) (MessageStatus, error) {
	if len(payload) < 15 {
		return MessageStatus{}, fmt.Errorf("i2cp: message status payload too short")
	}
	return MessageStatus{
		SessionID: wireutil.Uint16(payload[0:2]),
		MessageID: wireutil.Uint32(payload[2:6]),
		Status:    MessageStatusCode(payload[6]),
		Nonce:     wireutil.Uint32(payload[11:15]),
	}, nil
}

// MessagePayload is a decoded, unframed MessagePayload: the raw application
// payload plus the source/destination ports and protocol id recovered from
// the gzip header substitution, and the streaming/datagram decode when the
// protocol is recognized.
type MessagePayload struct {
	SessionID  uint16
	MessageID  uint32
	SourcePort uint16
	DestPort   uint16
	ProtocolID byte
	Raw        []byte

	StreamPacket    *streampkt.Packet
	RepliableSource *destination.Destination
	RepliablePayload []byte
	RawPayload      []byte
}

// ParseMessagePayload decodes a MessagePayload frame payload: u16 sessionId
// || u32 messageId || u32 payloadLen || gzip-framed payload, then routes the
// recovered protocol id to the matching decoder.
func ParseMessagePayload(payload []byte) (*MessagePayload, error) {
	if len(payload) < 10 {
		return nil, fmt.Errorf("i2cp: message payload too short")
	}
	sessionID := wireutil.Uint16(payload[0:2])
	messageID := wireutil.Uint32(payload[2:6])
	payloadLen := wireutil.Uint32(payload[6:10])
	framed := payload[10:]
	if uint32(len(framed)) < payloadLen {
		return nil, fmt.Errorf("i2cp: message payload truncated")
	}
	framed = framed[:payloadLen]

	raw, srcPort, dstPort, protoID, err := dgram.GzipUnframe(framed)
	if err != nil {
		return nil, fmt.Errorf("i2cp: unframe message payload: %w", err)
	}

	mp := &MessagePayload{
		SessionID:  sessionID,
		MessageID:  messageID,
		SourcePort: srcPort,
		DestPort:   dstPort,
		ProtocolID: protoID,
		Raw:        raw,
	}

	switch protoID {
	case ProtocolStreaming:
		p, err := streampkt.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("i2cp: decode streaming packet: %w", err)
		}
		mp.StreamPacket = p
	case ProtocolRepliableDatagram:
		src, body, err := dgram.ParseRepliable(raw)
		if err != nil {
			return nil, fmt.Errorf("i2cp: decode repliable datagram: %w", err)
		}
		mp.RepliableSource = src
		mp.RepliablePayload = body
	case ProtocolRawDatagram:
		mp.RawPayload = dgram.ParseRaw(raw)
	}
	return mp, nil
}
