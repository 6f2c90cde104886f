package transport

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/filemesh/node/peer"
	"github.com/filemesh/node/protocol"
	"github.com/filemesh/node/warehouse"
)

// serve runs a test server that handles each accepted connection on its
// own goroutine and dispatches DATA_ADD/DATA_GET/DATA_REMOVE to the
// transport handlers, mirroring the
// real dispatcher's behavior closely enough to exercise the client/server
// pair end to end.
func serve(t *testing.T, wh *warehouse.Warehouse) peer.Address {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				fr := protocol.NewFieldReader(conn)
				tag, err := fr.ReadTag()
				if err != nil {
					return
				}
				switch tag {
				case protocol.TagDataAdd:
					HandleDataAdd(fr, wh)
				case protocol.TagDataGet:
					HandleDataGet(fr, wh, conn)
				case protocol.TagDataRemove:
					HandleDataRemove(fr, wh)
				}
			}()
		}
	}()

	tcpAddr := ln.Addr().(*net.TCPAddr)
	return peer.Address{Host: "127.0.0.1", Port: uint16(tcpAddr.Port)}
}

func TestDataAddGetRemoveRoundTrip(t *testing.T) {
	wh, err := warehouse.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	addr := serve(t, wh)

	payload := []byte("Hello, World!")
	if err := SendDataAdd(addr, bytes.NewReader(payload), int64(len(payload))); err != nil {
		t.Fatalf("SendDataAdd: %v", err)
	}

	digest := sha256Hex(payload)

	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "out")
	found, err := SendDataGet(addr, digest, outPath)
	if err != nil {
		t.Fatalf("SendDataGet: %v", err)
	}
	if !found {
		t.Fatalf("expected chunk to be found")
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %q want %q", got, payload)
	}

	if err := SendDataRemove(addr, digest); err != nil {
		t.Fatalf("SendDataRemove: %v", err)
	}

	found, err = SendDataGet(addr, digest, filepath.Join(outDir, "out2"))
	if err != nil {
		t.Fatalf("SendDataGet after remove: %v", err)
	}
	if found {
		t.Fatalf("expected chunk to be gone after removal")
	}
}

func TestDataGetUnknownDigestReturnsNotFound(t *testing.T) {
	wh, err := warehouse.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	addr := serve(t, wh)

	unknown := "ababababababababababababababababababababababababababababababab01"[:64]
	found, err := SendDataGet(addr, unknown, filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("SendDataGet: %v", err)
	}
	if found {
		t.Fatalf("expected NOT_FOUND for unknown digest")
	}
}

func TestDataAddPayloadContainingDelimiterByte(t *testing.T) {
	wh, err := warehouse.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	addr := serve(t, wh)

	payload := []byte{0x00, protocol.Delimiter, 0xAA, protocol.Delimiter, protocol.Delimiter, 0xFF}
	if err := SendDataAdd(addr, bytes.NewReader(payload), int64(len(payload))); err != nil {
		t.Fatalf("SendDataAdd: %v", err)
	}

	digest := sha256Hex(payload)
	outPath := filepath.Join(t.TempDir(), "out")
	found, err := SendDataGet(addr, digest, outPath)
	if err != nil {
		t.Fatalf("SendDataGet: %v", err)
	}
	if !found {
		t.Fatalf("expected chunk to be found")
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("delimiter-containing payload mismatch: got %x want %x", got, payload)
	}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
