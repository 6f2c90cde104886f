package warehouse

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	w, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	data := []byte("Hello, World!")
	digest, err := w.PutBytes(data)
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}

	want := sha256.Sum256(data)
	if digest != hex.EncodeToString(want[:]) {
		t.Fatalf("digest mismatch: got %s", digest)
	}

	got, err := w.Get(digest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %q want %q", got, data)
	}

	if !w.Has(digest) {
		t.Fatalf("expected Has to report true")
	}
}

func TestGetNotFound(t *testing.T) {
	w, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	unknown := strings.Repeat("0", 64)
	if _, err := w.Get(unknown); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := w.Size(unknown); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound from Size, got %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	w, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	digest, err := w.PutBytes([]byte("bye"))
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	if err := w.Remove(digest); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if w.Has(digest) {
		t.Fatalf("expected chunk removed")
	}
	// removing an absent chunk is not an error
	if err := w.Remove(digest); err != nil {
		t.Fatalf("Remove of absent chunk should be a no-op, got %v", err)
	}
}

func TestOnDiskLayoutIsFlatDigestNamed(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	digest, err := w.PutBytes([]byte("flat layout"))
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, digest)); err != nil {
		t.Fatalf("expected file named after digest directly under data dir: %v", err)
	}
}

func TestPutExpectingShortPayloadDiscardsChunk(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	short := bytes.NewReader([]byte("abc"))
	if _, err := w.PutExpecting(short, 10); err == nil {
		t.Fatalf("expected error for short payload")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files left behind after short payload, got %v", entries)
	}
}

func TestDuplicateContentSameDigest(t *testing.T) {
	w, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d1, err := w.PutBytes([]byte("same"))
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	d2, err := w.PutBytes([]byte("same"))
	if err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("expected identical digests for identical content, got %s vs %s", d1, d2)
	}
}
