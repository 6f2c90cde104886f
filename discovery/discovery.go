// Package discovery implements LAN peer discovery over IPv6 multicast,
// the supplemented feature noted in SPEC_FULL.md §11. A running node
// periodically multicasts a CONNECT-shaped beacon carrying its own
// listen address; any other node listening on the same group treats a
// received beacon exactly like an incoming connect announcement.
//
// Grounded on "Network IPv6 Multicast.go": same site-local group/port
// family, same golang.org/x/net/ipv6 JoinGroup-per-interface join
// pattern, same "skip packets looped back from self" listener
// discipline. Two pieces of the teacher's implementation are dropped
// rather than adapted: the reuseport socket (DESIGN.md already drops
// that subsystem) and the hardcoded btcec keypair used to encrypt
// multicast packets (peer authentication is a declared non-goal, so
// beacons are sent in the clear, same as every other request on this
// wire).
package discovery

import (
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv6"

	"github.com/filemesh/node/peer"
)

// multicastGroup is site-local (group ID 114, distinct from the
// teacher's 112 so a filemesh beacon can never be mistaken for a
// Peernet one on a shared segment).
const multicastGroup = "ff05::114"

const multicastPort = 12914

// beaconInterval is how often a running Beacon re-announces itself.
const beaconInterval = 30 * time.Second

// maxBeaconSize bounds a single received datagram. A CONNECT beacon is
// a handful of bytes; this only guards against garbage on the wire.
const maxBeaconSize = 512

// Logger is the minimal logging contract discovery depends on.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Connector is the subset of *core.Node a Beacon needs: the ability to
// treat a discovered address like a gossip-walk CONNECT. Declared as an
// interface so this package does not import core (core already imports
// nothing from discovery, so a direct import would not cycle, but the
// interface keeps the dependency one-directional and testable without a
// real Node).
type Connector interface {
	SendConnect(p peer.Address) error
}

// Beacon joins the discovery multicast group, periodically announces
// self, and calls Connector.SendConnect for the address carried by
// every beacon it receives from another host; repeated beacons from the
// same address each trigger a SendConnect.
type Beacon struct {
	self      peer.Address
	connector Connector
	logger    Logger

	conn  net.PacketConn
	pc    *ipv6.PacketConn
	group *net.UDPAddr
	stop  chan struct{}
	done  chan struct{}
}

// NewBeacon constructs a Beacon for self. It does not join the network
// until Start is called.
func NewBeacon(self peer.Address, connector Connector, logger Logger) *Beacon {
	return &Beacon{
		self:      self,
		connector: connector,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start opens the multicast socket, joins the group on every available
// interface, and begins the listen and announce loops in the
// background. Returns an error if the UDP socket cannot be opened, the
// interfaces cannot be listed, or the group could not be joined on any
// interface.
func (b *Beacon) Start() error {
	conn, err := net.ListenPacket("udp6", net.JoinHostPort("::", strconv.Itoa(multicastPort)))
	if err != nil {
		return err
	}

	pc := ipv6.NewPacketConn(conn)
	group := net.ParseIP(multicastGroup)

	ifaces, err := net.Interfaces()
	if err != nil {
		conn.Close()
		return err
	}

	joined := false
	for i := range ifaces {
		if err := pc.JoinGroup(&ifaces[i], &net.UDPAddr{IP: group}); err == nil {
			joined = true
		}
	}
	if !joined {
		conn.Close()
		return errNoUsableInterface
	}

	if err := pc.SetMulticastLoopback(true); err != nil {
		b.logger.Printf("discovery: set multicast loopback: %v", err)
	}

	b.conn = conn
	b.pc = pc
	b.group = &net.UDPAddr{IP: group, Port: multicastPort}

	go b.listen()
	go b.announceLoop()
	return nil
}

// Stop leaves the group and stops the background loops. Idempotent.
func (b *Beacon) Stop() {
	select {
	case <-b.stop:
		return
	default:
		close(b.stop)
	}
	if b.conn != nil {
		b.conn.Close()
	}
	<-b.done
}

func (b *Beacon) announceLoop() {
	ticker := time.NewTicker(beaconInterval)
	defer ticker.Stop()

	b.announce()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.announce()
		}
	}
}

func (b *Beacon) announce() {
	payload, err := encodeBeacon(b.self)
	if err != nil {
		b.logger.Printf("discovery: encode beacon: %v", err)
		return
	}
	if _, err := b.conn.WriteTo(payload, b.group); err != nil {
		b.logger.Printf("discovery: send beacon: %v", err)
	}
}

func (b *Beacon) listen() {
	defer close(b.done)
	buf := make([]byte, maxBeaconSize)
	for {
		n, addr, err := b.conn.ReadFrom(buf)
		if err != nil {
			return
		}

		sender, ok := addr.(*net.UDPAddr)
		if !ok || isSelfAddress(sender) {
			continue
		}

		p, err := decodeBeacon(buf[:n])
		if err != nil {
			b.logger.Printf("discovery: malformed beacon from %s: %v", sender, err)
			continue
		}
		if p.Equal(b.self) {
			continue
		}
		if err := b.connector.SendConnect(p); err != nil {
			b.logger.Printf("discovery: connect to discovered peer %s: %v", p, err)
		}
	}
}

// isSelfAddress reports whether addr belongs to one of this host's own
// interfaces, i.e. the packet was looped back rather than sent by
// another host (teacher's IsAddressSelf, grounded the same way here
// since multicast loopback is enabled for the single-host dev case).
func isSelfAddress(addr *net.UDPAddr) bool {
	ifaceAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, a := range ifaceAddrs {
		ipNet, ok := a.(*net.IPNet)
		if ok && ipNet.IP.Equal(addr.IP) {
			return true
		}
	}
	return false
}
