package raw

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-i2p/go-i2p-client/keys"
	"github.com/sirupsen/logrus"
)

// Dial establishes a raw connection to the specified destination
func (rs *RawSession) Dial(destination string) (net.PacketConn, error) {
	return rs.DialTimeout(destination, 30*time.Second)
}

// DialTimeout establishes a raw connection with a timeout; a timeout of zero or less means no timeout
func (rs *RawSession) DialTimeout(destination string, timeout time.Duration) (net.PacketConn, error) {
	if timeout <= 0 {
		return rs.DialContext(context.Background(), destination)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return rs.DialContext(ctx, destination)
}

// DialContext establishes a raw connection with context support
func (rs *RawSession) DialContext(ctx context.Context, destination string) (net.PacketConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if destination == "" {
		return nil, fmt.Errorf("destination cannot be empty")
	}

	logger := log.WithFields(logrus.Fields{
		"destination": destination,
	})
	logger.Debug("Dialing raw destination")

	// Create a raw connection
	conn := &RawConn{
		session: rs,
		reader:  rs.NewReader(),
		writer:  rs.NewWriter(),
	}
	conn.addCleanup()

	// Start the reader loop
	go conn.reader.receiveLoop()

	logger.WithField("session_id", rs.ID()).Debug("Successfully created raw connection")
	return conn, nil
}

// DialI2P establishes a raw connection to an I2P address
func (rs *RawSession) DialI2P(addr keys.I2PAddr) (net.PacketConn, error) {
	return rs.DialI2PTimeout(addr, 30*time.Second)
}

// DialI2PTimeout establishes a raw connection to an I2P address with timeout; a timeout of zero or less means no timeout
func (rs *RawSession) DialI2PTimeout(addr keys.I2PAddr, timeout time.Duration) (net.PacketConn, error) {
	if timeout <= 0 {
		return rs.DialI2PContext(context.Background(), addr)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return rs.DialI2PContext(ctx, addr)
}

// DialI2PContext establishes a raw connection to an I2P address with context support
func (rs *RawSession) DialI2PContext(ctx context.Context, addr keys.I2PAddr) (net.PacketConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rs.mu.RLock()
	closed := rs.closed
	rs.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("session is closed")
	}

	logger := log.WithFields(logrus.Fields{
		"destination": addr.Base32(),
	})
	logger.Debug("Dialing I2P raw destination")

	// Create a raw connection
	conn := &RawConn{
		session: rs,
		reader:  rs.NewReader(),
		writer:  rs.NewWriter(),
	}
	conn.addCleanup()

	// Start the reader loop
	go conn.reader.receiveLoop()

	logger.WithField("session_id", rs.ID()).Debug("Successfully created I2P raw connection")
	return conn, nil
}

// generateSessionID generates a unique session identifier
func generateSessionID() string {
	return fmt.Sprintf("raw_%d", time.Now().UnixNano())
}
