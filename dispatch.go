package core

import (
	"net"

	"github.com/filemesh/node/peer"
	"github.com/filemesh/node/protocol"
	"github.com/filemesh/node/transport"
)

// acceptLoop is the dedicated background task started by New. Per
// spec.md §4.3 a conformant implementation may dispatch each handler on
// its own task as long as PeerRegistry and the chunk store remain
// correctly serialized internally — both already are (peer.Registry's
// mutex, warehouse's atomic rename) — so each accepted connection is
// handled concurrently here rather than one at a time on this loop.
//
// Grounded on dht/LocalNode.go's accept-loop-in-a-goroutine shape,
// adapted from UDP packet reads to net.Listener.Accept/net.Conn
// framing.
func (n *Node) acceptLoop() {
	defer close(n.done)
	for {
		conn, err := n.ln.Accept()
		if err != nil {
			return
		}

		n.mu.Lock()
		down := n.shuttingDown
		n.mu.Unlock()
		if down {
			// This is either the shutdown self-ping or, harmlessly, a
			// late real connection racing the shutdown flag; either
			// way the node is no longer accepting work.
			conn.Close()
			return
		}

		go n.handleConn(conn)
	}
}

// handleConn reads the request's type tag and routes to the matching
// handler. Unknown or malformed tags close the connection; the node
// keeps accepting (spec.md §4.3).
func (n *Node) handleConn(conn net.Conn) {
	defer conn.Close()

	fr := protocol.NewFieldReader(conn)
	tag, err := fr.ReadTag()
	if err != nil {
		n.logger.Printf("core: request from %s: %v", conn.RemoteAddr(), err)
		return
	}

	switch tag {
	case protocol.TagPing:
		// no response; the connection's only purpose is to be accepted.
	case protocol.TagConnect:
		n.handleConnect(fr, conn)
	case protocol.TagDisconnect:
		n.handleDisconnect(fr, conn)
	case protocol.TagGetPeers:
		n.handleGetPeers(conn)
	case protocol.TagDataAdd:
		if _, err := transport.HandleDataAdd(fr, n.warehouse); err != nil {
			n.logger.Printf("core: DATA_ADD from %s: %v", conn.RemoteAddr(), err)
		}
	case protocol.TagDataGet:
		if err := transport.HandleDataGet(fr, n.warehouse, conn); err != nil {
			n.logger.Printf("core: DATA_GET from %s: %v", conn.RemoteAddr(), err)
		}
	case protocol.TagDataRemove:
		if err := transport.HandleDataRemove(fr, n.warehouse); err != nil {
			n.logger.Printf("core: DATA_REMOVE from %s: %v", conn.RemoteAddr(), err)
		}
	}
}

func (n *Node) handleConnect(fr *protocol.FieldReader, conn net.Conn) {
	host, port, err := fr.ReadConnectFields()
	if err != nil {
		n.logger.Printf("core: malformed CONNECT from %s: %v", conn.RemoteAddr(), err)
		return
	}
	p := peer.Address{Host: host, Port: port}
	n.registry.Add(p)
	n.events.publish(Event{Kind: "connect", Peer: p})
}

func (n *Node) handleDisconnect(fr *protocol.FieldReader, conn net.Conn) {
	host, port, err := fr.ReadConnectFields()
	if err != nil {
		n.logger.Printf("core: malformed DISCONNECT from %s: %v", conn.RemoteAddr(), err)
		return
	}
	p := peer.Address{Host: host, Port: port}
	n.registry.Remove(p)
	n.events.publish(Event{Kind: "disconnect", Peer: p})
}

func (n *Node) handleGetPeers(conn net.Conn) {
	body := protocol.EncodePeerList(n.registry.Snapshot())
	if err := writeDelimited(conn, body); err != nil {
		n.logger.Printf("core: GET_PEERS response to %s: %v", conn.RemoteAddr(), err)
	}
}

func writeDelimited(conn net.Conn, body string) error {
	_, err := conn.Write(append([]byte(body), protocol.Delimiter))
	return err
}
