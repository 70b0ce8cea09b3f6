package hellostatic

import (
	"net"
	"strings"
)

// Listen opens a listener for addr. "unix:/path", "tcp:host:port",
// "tcp4:..." and "tcp6:..." select the network, anything else is TCP.
func Listen(addr string) (net.Listener, error) {
	protos := strings.SplitN(addr, ":", 2)
	if len(protos) == 2 {
		switch protos[0] {
		case "unix", "tcp", "tcp4", "tcp6":
			return net.Listen(protos[0], protos[1])
		}
	}
	return net.Listen("tcp", addr)
}
