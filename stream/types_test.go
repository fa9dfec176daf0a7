package stream

import (
	"net"

	"github.com/go-i2p/go-i2p-client/common"
)

var (
	ss common.Session = &StreamSession{}
	sl net.Listener   = &StreamListener{}
	sc net.Conn       = &StreamConn{}
)
