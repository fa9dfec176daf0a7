package dgram

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
)

func sha256Sum(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

// gzip header field offsets this module repurposes to carry routing
// metadata alongside the compressed payload. CM/FLG occupy bytes 2-3 and
// are left untouched; MTIME (bytes 4-7) and OS (byte 9) are the fields
// substituted.
const (
	offsetSourcePort = 4
	offsetDestPort   = 6
	offsetProtocolID = 9
	minGzipHeaderLen = 10
)

// GzipFrame compresses raw with gzip, then overwrites unused header bytes
// with the source port, destination port, and protocol id, exactly as the
// router-control transport's payload format requires. The result still
// decompresses normally: none of the overwritten bytes affect DEFLATE
// decoding.
func GzipFrame(raw []byte, sourcePort, destPort uint16, protocolID byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("dgram: gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("dgram: gzip close: %w", err)
	}

	out := buf.Bytes()
	if len(out) < minGzipHeaderLen {
		return nil, fmt.Errorf("dgram: gzip frame shorter than header")
	}
	binary.BigEndian.PutUint16(out[offsetSourcePort:], sourcePort)
	binary.BigEndian.PutUint16(out[offsetDestPort:], destPort)
	out[offsetProtocolID] = protocolID
	return out, nil
}

// GzipUnframe extracts the routing metadata substituted by GzipFrame and
// returns the decompressed payload.
func GzipUnframe(framed []byte) (payload []byte, sourcePort, destPort uint16, protocolID byte, err error) {
	if len(framed) < minGzipHeaderLen {
		return nil, 0, 0, 0, fmt.Errorf("dgram: frame shorter than gzip header")
	}
	sourcePort = binary.BigEndian.Uint16(framed[offsetSourcePort:])
	destPort = binary.BigEndian.Uint16(framed[offsetDestPort:])
	protocolID = framed[offsetProtocolID]

	zr, err := gzip.NewReader(bytes.NewReader(framed))
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("dgram: gzip reader: %w", err)
	}
	defer zr.Close()

	payload, err = io.ReadAll(zr)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("dgram: gzip read: %w", err)
	}
	return payload, sourcePort, destPort, protocolID, nil
}
