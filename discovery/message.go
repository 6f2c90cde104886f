package discovery

import (
	"bytes"
	"errors"

	"github.com/filemesh/node/peer"
	"github.com/filemesh/node/protocol"
)

var errNoUsableInterface = errors.New("discovery: could not join multicast group on any interface")

// encodeBeacon reuses protocol's CONNECT wire shape (tag, host, port)
// so a beacon is parsed by the same FieldReader the TCP side uses;
// multicast only changes the transport, not the framing.
func encodeBeacon(self peer.Address) ([]byte, error) {
	var buf bytes.Buffer
	if err := protocol.WriteConnect(&buf, self.Host, self.Port); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBeacon(raw []byte) (peer.Address, error) {
	fr := protocol.NewFieldReader(bytes.NewReader(raw))
	tag, err := fr.ReadTag()
	if err != nil {
		return peer.Address{}, err
	}
	if tag != protocol.TagConnect {
		return peer.Address{}, protocol.ErrMalformed
	}
	host, port, err := fr.ReadConnectFields()
	if err != nil {
		return peer.Address{}, err
	}
	return peer.Address{Host: host, Port: port}, nil
}
