package wire

import (
	"fmt"
	"net"
)

// Endpoint is a transport address the session can dial: a TCP host:port
// pair or, where the transport supports it, a Unix-domain socket path.
type Endpoint struct {
	Network string // "tcp" or "unix"
	Address string
}

// TCPEndpoint builds an IPv4/IPv6 TCP endpoint.
func TCPEndpoint(host string, port uint16) Endpoint {
	return Endpoint{Network: "tcp", Address: net.JoinHostPort(host, fmt.Sprintf("%d", port))}
}

// UnixEndpoint builds a Unix-domain socket endpoint.
func UnixEndpoint(path string) Endpoint {
	return Endpoint{Network: "unix", Address: path}
}

func (e Endpoint) String() string {
	return e.Network + "://" + e.Address
}
