package core

import (
	"net"
	"time"

	"github.com/filemesh/node/peer"
	"github.com/filemesh/node/protocol"
)

// dialTimeout bounds sendConnect, sendDisconnect and the sendGetPeers
// connection attempt.
const dialTimeout = 10 * time.Second

// getPeersTimeout bounds a sendGetPeers round trip once connected
// (spec.md §4.4/§5).
const getPeersTimeout = 10 * time.Second

// sendPing is used only as the shutdown unblock trick: it is never
// exposed as a Node method because no caller needs to ping an arbitrary
// peer, only the node's own listener.
func sendPing(p peer.Address) error {
	conn, err := net.DialTimeout("tcp", p.String(), dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	return protocol.WritePing(conn)
}

// SendConnect opens a connection to p, announces the node's own
// address, and adds p to the registry on success. The remote is
// expected to symmetrically add the sender (spec.md's testable
// property: after SendConnect completes, both sides see each other).
func (n *Node) SendConnect(p peer.Address) error {
	if p.Equal(n.self) {
		return ErrSelfContact
	}
	conn, err := net.DialTimeout("tcp", p.String(), dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := protocol.WriteConnect(conn, n.self.Host, n.self.Port); err != nil {
		return err
	}
	n.registry.Add(p)
	n.events.publish(Event{Kind: "connect", Peer: p})
	return nil
}

// SendDisconnect announces departure to p and removes it from the
// registry on send success; on failure the entry is left in place and
// the error is surfaced, matching spec.md §4.4's reference behavior.
func (n *Node) SendDisconnect(p peer.Address) error {
	if p.Equal(n.self) {
		return ErrSelfContact
	}
	conn, err := net.DialTimeout("tcp", p.String(), dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := protocol.WriteDisconnect(conn, n.self.Host, n.self.Port); err != nil {
		return err
	}
	n.registry.Remove(p)
	n.events.publish(Event{Kind: "disconnect", Peer: p})
	return nil
}

// SendGetPeers requests p's current peer listing under a bounded
// timeout and parses it into addresses.
func (n *Node) SendGetPeers(p peer.Address) ([]peer.Address, error) {
	if p.Equal(n.self) {
		return nil, ErrSelfContact
	}
	conn, err := net.DialTimeout("tcp", p.String(), dialTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(getPeersTimeout))

	if err := protocol.WriteGetPeers(conn); err != nil {
		return nil, err
	}
	fr := protocol.NewFieldReader(conn)
	body, err := fr.ReadField()
	if err != nil {
		return nil, err
	}
	return protocol.DecodePeerList(body)
}

// JoinNetwork performs the gossip walk described in spec.md §4.4: start
// from seed, connect and ask for peers, and keep expanding the frontier
// with newly discovered addresses not already known. A peer that fails
// to connect or respond is skipped, never aborting the walk.
func (n *Node) JoinNetwork(seed peer.Address) {
	frontier := []peer.Address{seed}

	for len(frontier) > 0 {
		next := make(map[peer.Address]struct{})

		for _, p := range frontier {
			if err := n.SendConnect(p); err != nil {
				n.logger.Printf("core: joinNetwork: connect %s: %v", p, err)
				continue
			}
			peers, err := n.SendGetPeers(p)
			if err != nil {
				n.logger.Printf("core: joinNetwork: get-peers %s: %v", p, err)
				continue
			}
			for _, q := range peers {
				next[q] = struct{}{}
			}
		}

		frontier = frontier[:0]
		for q := range next {
			if q.Equal(n.self) || n.registry.Contains(q) {
				continue
			}
			frontier = append(frontier, q)
		}
	}
}

// LeaveNetwork issues SendDisconnect to every currently known peer,
// best-effort.
func (n *Node) LeaveNetwork() {
	for _, p := range n.registry.Snapshot() {
		if err := n.SendDisconnect(p); err != nil {
			n.logger.Printf("core: leaveNetwork: disconnect %s: %v", p, err)
		}
	}
}
