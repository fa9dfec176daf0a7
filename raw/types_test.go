package raw

import (
	"net"

	"github.com/go-i2p/go-i2p-client/common"
)

var (
	ds common.Session = &RawSession{}
	dl net.Listener   = &RawListener{}
	dc net.PacketConn = &RawConn{}
)
