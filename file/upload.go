package file

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/filemesh/node/cipher"
	"github.com/filemesh/node/peer"
	"github.com/filemesh/node/transport"
)

// keyPath returns the path of the per-file symmetric key blob for
// basename, persisted adjacent to the manifest table (spec.md §3).
func (l *Layer) keyPath(basename string) string {
	return filepath.Join(l.dataDir, basename+".key")
}

// Upload splits the file at path into fixed-size parts, replicates each
// part to R randomly chosen peers, and records the resulting digest
// manifest under the file's basename. If encrypt is true a fresh key is
// generated and persisted, and every part is transformed to opaque
// ciphertext before it is hashed or sent — the digest and the bytes on
// the wire are always of the same (possibly encrypted) content.
//
// A zero-byte file uploads with an empty parts list; downloading it
// later reproduces an empty file.
func (l *Layer) Upload(path string, encrypt bool) error {
	path = os.ExpandEnv(path)
	basename := filepath.Base(path)

	var key cipher.Key
	if encrypt {
		var err error
		key, err = cipher.GenerateKey()
		if err != nil {
			return fmt.Errorf("file: generate key for %s: %w", basename, err)
		}
		if err := os.WriteFile(l.keyPath(basename), key[:], 0o600); err != nil {
			return fmt.Errorf("file: persist key for %s: %w", basename, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file: open %s: %w", path, err)
	}
	defer f.Close()

	parts := make([]string, 0)
	buf := make([]byte, l.partSize)
	for {
		n, readErr := io.ReadFull(f, buf)
		if n == 0 {
			break
		}
		chunk := buf[:n]
		if encrypt {
			chunk, err = cipher.Encrypt(key, chunk)
			if err != nil {
				return fmt.Errorf("file: encrypt part of %s: %w", basename, err)
			}
		}

		digest, err := l.replicatePart(chunk)
		if err != nil {
			return fmt.Errorf("file: upload %s: %w", basename, err)
		}
		parts = append(parts, digest)

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("file: read %s: %w", path, readErr)
		}
	}

	if err := l.table.Set(basename, parts); err != nil {
		return fmt.Errorf("file: persist manifest for %s: %w", basename, err)
	}
	return nil
}

// replicatePart sends chunk to R peers sampled without replacement from
// the registry and returns its digest. When at least one peer is
// sampled, at least one replica must accept the part for the upload to
// proceed; every sampled peer is still attempted even once others have
// failed, since replication is meant to tolerate exactly this. With no
// known peers nothing is sent and the digest is returned without error.
func (l *Layer) replicatePart(chunk []byte) (digest string, err error) {
	digest = sha256Hex(chunk)

	targets := sampleWithoutReplacement(l.registry.Snapshot(), l.replication)
	sent := 0
	for _, p := range targets {
		if sendErr := transport.SendDataAdd(p, bytes.NewReader(chunk), int64(len(chunk))); sendErr != nil {
			l.logger.Printf("file: replica %s for part %s failed: %v", p, digest, sendErr)
			continue
		}
		sent++
	}
	if len(targets) > 0 && sent == 0 {
		return "", fmt.Errorf("all %d replicas failed for part %s", len(targets), digest)
	}
	return digest, nil
}

// sampleWithoutReplacement returns up to n distinct entries of peers in
// random order. If peers has fewer than n entries, all of them are
// returned (spec.md §4.7).
func sampleWithoutReplacement(peers []peer.Address, n int) []peer.Address {
	if n > len(peers) {
		n = len(peers)
	}
	perm := rand.Perm(len(peers))
	out := make([]peer.Address, n)
	for i := 0; i < n; i++ {
		out[i] = peers[perm[i]]
	}
	return out
}
