package discovery

import (
	"testing"

	"github.com/filemesh/node/peer"
)

func TestBeaconRoundTrip(t *testing.T) {
	self := peer.Address{Host: "192.168.1.5", Port: 7812}

	raw, err := encodeBeacon(self)
	if err != nil {
		t.Fatalf("encodeBeacon: %v", err)
	}

	got, err := decodeBeacon(raw)
	if err != nil {
		t.Fatalf("decodeBeacon: %v", err)
	}
	if got != self {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, self)
	}
}

func TestDecodeBeaconRejectsGarbage(t *testing.T) {
	if _, err := decodeBeacon([]byte("not a beacon")); err == nil {
		t.Fatal("expected error decoding garbage")
	}
}

func TestDecodeBeaconRejectsWrongTag(t *testing.T) {
	raw := []byte{'1', 0x01, '0', 0x01}
	if _, err := decodeBeacon(raw); err == nil {
		t.Fatal("expected error decoding a PING-tagged payload")
	}
}

type fakeConnector struct {
	connected []peer.Address
}

func (f *fakeConnector) SendConnect(p peer.Address) error {
	f.connected = append(f.connected, p)
	return nil
}

type discardLogger struct{}

func (discardLogger) Printf(format string, v ...interface{}) {}

func TestNewBeaconDoesNotJoinUntilStart(t *testing.T) {
	b := NewBeacon(peer.Address{Host: "127.0.0.1", Port: 7812}, &fakeConnector{}, discardLogger{})
	if b.conn != nil {
		t.Fatal("expected no socket before Start")
	}
}
