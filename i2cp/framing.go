package i2cp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-i2p/go-i2p-client/wireutil"
)

// Frame is one decoded router-control message: a type byte plus its
// payload bytes.
type Frame struct {
	Type    byte
	Payload []byte
}

// WriteFrame writes one length-tagged message: u32 BE length || u8 type ||
// payload. It does not write the protocol prelude; Client.handshake sends
// that once before the first frame.
func WriteFrame(w io.Writer, msgType byte, payload []byte) error {
	header := make([]byte, 0, 5)
	header = wireutil.PutUint32(header, uint32(len(payload)+1))
	header = append(header, msgType)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("i2cp: write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("i2cp: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-tagged message from r.
func ReadFrame(r *bufio.Reader) (Frame, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return Frame{}, fmt.Errorf("i2cp: read frame length: %w", err)
	}
	total := wireutil.Uint32(lenBuf)
	if total == 0 {
		return Frame{}, fmt.Errorf("i2cp: zero-length frame")
	}

	body := make([]byte, total)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, fmt.Errorf("i2cp: read frame body: %w", err)
	}
	return Frame{Type: body[0], Payload: body[1:]}, nil
}
