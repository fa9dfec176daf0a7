package i2cp

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-i2p/go-i2p-client/destination"
	_ "github.com/go-i2p/go-i2p-client/destination/reddsa"
	"github.com/go-i2p/go-i2p-client/wireutil"
)

// SessionOptions carries the router-level tunnel/options configuration a
// CreateSession message advertises. Zero-valued fields fall back to the
// defaults below.
type SessionOptions struct {
	Extra map[string]string
}

func defaultOptions() map[string]string {
	return map[string]string{
		"i2cp.fastReceive":     "true",
		"i2cp.leaseSetEncType": "4,0",
	}
}

// encodeOptionsMapping serializes a string-to-string option set as I2P's
// mapping format: u16 total_len || (len-prefixed key || "=" || len-prefixed
// value || ";")*, with entries sorted by key for a deterministic, signable
// byte sequence.
func encodeOptionsMapping(opts map[string]string) []byte {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body []byte
	for _, k := range keys {
		v := opts[k]
		body = append(body, byte(len(k)))
		body = append(body, k...)
		body = append(body, '=')
		body = append(body, byte(len(v)))
		body = append(body, v...)
		body = append(body, ';')
	}

	out := make([]byte, 0, len(body)+2)
	out = wireutil.PutUint16(out, uint16(len(body)))
	out = append(out, body...)
	return out
}

// BuildCreateSession assembles and signs a CreateSession message:
// destination || options_mapping || u64 now_ms || signature(all preceding).
func BuildCreateSession(local *destination.LocalDestination, extra map[string]string, now time.Time) ([]byte, error) {
	destBytes, err := local.Destination.Bytes()
	if err != nil {
		return nil, fmt.Errorf("i2cp: create session destination bytes: %w", err)
	}

	opts := defaultOptions()
	for k, v := range extra {
		opts[k] = v
	}

	var body []byte
	body = append(body, destBytes...)
	body = append(body, encodeOptionsMapping(opts)...)
	body = wireutil.PutUint64(body, uint64(now.UnixMilli()))

	sig, err := local.Sign(body)
	if err != nil {
		return nil, fmt.Errorf("i2cp: sign create session: %w", err)
	}

	out := make([]byte, 0, len(body)+len(sig))
	out = append(out, body...)
	out = append(out, sig...)
	return out, nil
}

// ParseSessionStatus decodes a SessionStatus message payload: u16
// sessionId || u8 status || [optional u64 i2cp.messageReliability].
func ParseSessionStatus(payload []byte) (sessionID uint16, status SessionStatusCode, err error) {
	if len(payload) < 3 {
		return 0, 0, fmt.Errorf("i2cp: session status payload too short")
	}
	sessionID = wireutil.Uint16(payload[:2])
	status = SessionStatusCode(payload[2])
	return sessionID, status, nil
}
