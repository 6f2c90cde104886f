// Package peer defines the identity and membership set shared by the
// node's listener, membership protocol, and file layer.
package peer

import (
	"net"
	"strconv"
)

// Address identifies a node's listening socket. Equality is structural:
// two addresses are the same peer iff Host and Port match exactly.
type Address struct {
	Host string
	Port uint16
}

// String renders the address in "host:port" form (an IPv6 host is
// enclosed in brackets), the same form used on the wire for the
// GET_PEERS listing.
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// Equal reports whether a and other denote the same listening socket.
func (a Address) Equal(other Address) bool {
	return a.Host == other.Host && a.Port == other.Port
}
