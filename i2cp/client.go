package i2cp

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-i2p/go-i2p-client/shutdown"
	"github.com/go-i2p/go-i2p-client/wireutil"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

var globalCoordinator = shutdown.Global

// Client is a single router-control connection: the protocol prelude plus
// the date handshake have already completed once Dial returns. Reads are
// owned by the session's single read loop; writes may come from it (replying
// to a leaseset request) or from application goroutines sending messages
// concurrently, so writeMu serializes frames onto the wire.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	writeMu sync.Mutex

	quitToken int
}

// Dial opens a TCP connection to addr, performs the one-time protocol
// prelude and the GetDate/SetDate handshake, and returns a ready Client.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("i2cp: dial %s: %w", addr, err)
	}

	c := &Client{conn: conn, reader: bufio.NewReader(conn)}
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	c.quitToken = globalCoordinator.Register(c)
	return c, nil
}

func (c *Client) handshake() error {
	if _, err := c.conn.Write([]byte{protocolPrelude}); err != nil {
		return fmt.Errorf("i2cp: write protocol prelude: %w", err)
	}

	getDate := encodeGetDate(RouterVersion)
	if err := WriteFrame(c.conn, MsgGetDate, getDate); err != nil {
		return fmt.Errorf("i2cp: send GetDate: %w", err)
	}

	frame, err := ReadFrame(c.reader)
	if err != nil {
		return fmt.Errorf("i2cp: read SetDate: %w", err)
	}
	if frame.Type != MsgSetDate {
		return fmt.Errorf("i2cp: expected SetDate, got message type %d", frame.Type)
	}
	log.Debug("i2cp: handshake complete")
	return nil
}

// encodeGetDate builds the GetDate payload: u64 now_ms || u8 version_len ||
// version.
func encodeGetDate(version string) []byte {
	out := wireutil.PutUint64(nil, uint64(time.Now().UnixMilli()))
	out = append(out, byte(len(version)))
	out = append(out, version...)
	return out
}

// WriteMessage writes one length-tagged message over the connection.
// Safe for concurrent use; frames are never interleaved.
func (c *Client) WriteMessage(msgType byte, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteFrame(c.conn, msgType, payload)
}

// ReadMessage blocks for the next length-tagged message.
func (c *Client) ReadMessage() (Frame, error) {
	return ReadFrame(c.reader)
}

// Quit implements shutdown.Quitter: it sends Disconnect best-effort and
// closes the underlying connection.
func (c *Client) Quit() {
	_ = c.WriteMessage(MsgDisconnect, []byte("shutting down"))
	c.conn.Close()
}

// Close unregisters c from the shutdown coordinator and closes the
// connection without sending Disconnect.
func (c *Client) Close() error {
	globalCoordinator.Unregister(c.quitToken)
	return c.conn.Close()
}
