package protocol

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/filemesh/node/peer"
)

// EncodePeerList renders a peer set as the GET_PEERS response body: a
// comma-separated list of "host:port" tokens.
//
// Re-architected per spec.md's design note: the original source
// serializes the peer set with its host language's native repr/eval,
// a portability and remote-code-execution hazard. This is a strict,
// fully round-trippable textual format instead.
func EncodePeerList(peers []peer.Address) string {
	parts := make([]string, len(peers))
	for i, p := range peers {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

// DecodePeerList parses a GET_PEERS response body produced by
// EncodePeerList. It rejects malformed entries instead of guessing at
// their meaning.
func DecodePeerList(body string) ([]peer.Address, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}

	tokens := strings.Split(body, ",")
	out := make([]peer.Address, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		host, portStr, err := net.SplitHostPort(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: peer token %q: %v", ErrMalformed, tok, err)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: peer port in token %q", ErrMalformed, tok)
		}
		out = append(out, peer.Address{Host: host, Port: uint16(port)})
	}
	return out, nil
}
