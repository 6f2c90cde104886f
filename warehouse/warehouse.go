// Package warehouse implements the content-addressed chunk store (spec
// component C5): one regular file per stored chunk, named by the
// lowercase-hex SHA-256 digest of its bytes, written via a temporary
// file that is renamed into place so readers never observe a partial
// write.
//
// Adapted from warehouse/Warehouse.go and warehouse/Store.go's
// CreateFile/ReadFile/DeleteFile. The teacher hashes with
// lukechampine.com/blake3 and shards files into a two-level
// hash-prefix directory tree; this package hashes with stdlib
// crypto/sha256 (the digest algorithm spec.md fixes for wire
// compatibility between independently implemented peers) and uses a
// flat <dataDir>/<digest> layout (spec.md §6 names this exact layout).
package warehouse

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get and Size when no chunk is stored under
// the requested digest.
var ErrNotFound = errors.New("warehouse: chunk not found")

// DigestSize is the length, in hex characters, of a chunk digest.
const DigestSize = sha256.Size * 2

// Warehouse is a directory on disk holding content-addressed chunks.
type Warehouse struct {
	dir string
}

// Open creates the data directory (recursively) if absent and returns a
// Warehouse rooted there.
func Open(dir string) (*Warehouse, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Warehouse{dir: dir}, nil
}

// Dir returns the warehouse's data directory.
func (w *Warehouse) Dir() string {
	return w.dir
}

func (w *Warehouse) pathFor(digest string) string {
	return filepath.Join(w.dir, digest)
}

// Put streams data to disk while hashing it, then atomically publishes
// the result under its digest. Returns the lowercase-hex digest.
func (w *Warehouse) Put(data io.Reader) (digest string, err error) {
	return w.put(func(mw io.Writer) (int64, error) {
		return io.Copy(mw, data)
	})
}

// PutExpecting streams exactly size bytes from data. If the stream
// closes early (spec.md's ShortPayload error kind) the temporary file is
// discarded and no chunk is published.
func (w *Warehouse) PutExpecting(data io.Reader, size int64) (digest string, err error) {
	return w.put(func(mw io.Writer) (int64, error) {
		written, err := io.CopyN(mw, data, size)
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return written, err
	})
}

func (w *Warehouse) put(copy func(mw io.Writer) (int64, error)) (digest string, err error) {
	tmp, err := os.CreateTemp(w.dir, "wh-"+uuid.NewString()+"-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	hasher := sha256.New()
	mw := io.MultiWriter(tmp, hasher)

	if _, err = copy(mw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}

	digest = hex.EncodeToString(hasher.Sum(nil))
	target := w.pathFor(digest)

	// Content is identical by construction when the target already
	// exists (spec.md C5: two different byte sequences cannot share a
	// name except by SHA-256 collision), so overwrite-or-skip are both
	// acceptable; renaming unconditionally keeps the logic simple.
	if err = os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return digest, nil
}

// PutBytes is a convenience wrapper around Put for in-memory buffers.
func (w *Warehouse) PutBytes(data []byte) (digest string, err error) {
	return w.Put(bytes.NewReader(data))
}

// Get returns the bytes stored under digest, or ErrNotFound.
func (w *Warehouse) Get(digest string) ([]byte, error) {
	data, err := os.ReadFile(w.pathFor(digest))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// OpenChunk opens the chunk for streaming reads, or ErrNotFound.
func (w *Warehouse) OpenChunk(digest string) (*os.File, error) {
	f, err := os.Open(w.pathFor(digest))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Remove deletes the chunk stored under digest. Absence is not an error.
func (w *Warehouse) Remove(digest string) error {
	err := os.Remove(w.pathFor(digest))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Size returns the byte length of the chunk stored under digest, or
// ErrNotFound.
func (w *Warehouse) Size(digest string) (int64, error) {
	info, err := os.Stat(w.pathFor(digest))
	if errors.Is(err, os.ErrNotExist) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Has reports whether a chunk is stored under digest.
func (w *Warehouse) Has(digest string) bool {
	_, err := os.Stat(w.pathFor(digest))
	return err == nil
}
