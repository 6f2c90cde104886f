// Package transport implements the streaming chunk transport (spec
// component C6): DATA_ADD, DATA_GET and DATA_REMOVE, each using 4 KiB
// network-buffer I/O so arbitrarily large chunks never need to be held
// in memory on either side.
//
// Grounded on warehouse/Store.go's CreateFile, which streams into a
// io.MultiWriter(tmpFile, hashWriter) while hashing on the fly; the
// client/server here generalizes that pattern from a file-path source
// to a net.Conn source, and from blake3 to sha256 (see warehouse
// package).
package transport

import (
	"io"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/filemesh/node/peer"
	"github.com/filemesh/node/protocol"
)

// bufferSize is the network I/O chunk size used for streaming copies.
const bufferSize = 4096

// dialTimeout bounds how long a client waits to establish a TCP
// connection to a peer before giving up.
const dialTimeout = 10 * time.Second

func dial(addr peer.Address) (net.Conn, error) {
	return net.DialTimeout("tcp", addr.String(), dialTimeout)
}

// SendDataAdd streams size bytes from source to peer p as a DATA_ADD
// request, then closes the connection. The server computes the digest;
// this function does not return it, since replication callers already
// know the digest of the bytes they're sending (see file.Layer.Upload).
func SendDataAdd(p peer.Address, source io.Reader, size int64) error {
	conn, err := dial(p)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := protocol.WriteDataAddHeader(conn, size); err != nil {
		return err
	}
	buf := make([]byte, bufferSize)
	written, err := io.CopyBuffer(conn, io.LimitReader(source, size), buf)
	if err != nil {
		return err
	}
	if written != size {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// SendDataAddFile is a convenience wrapper around SendDataAdd for a
// chunk already on disk (e.g. a temporary decrypted/encrypted part).
func SendDataAddFile(p peer.Address, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return SendDataAdd(p, f, info.Size())
}

// SendDataGet requests digest from peer p and, if found, writes it to
// outPath (via a temp-file-then-rename, matching the warehouse's own
// durability discipline). Returns found=false and no error if the peer
// reports NOT_FOUND (size 0).
func SendDataGet(p peer.Address, digest string, outPath string) (found bool, err error) {
	conn, err := dial(p)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	if err := protocol.WriteDataGet(conn, digest); err != nil {
		return false, err
	}

	fr := protocol.NewFieldReader(conn)
	size, err := fr.ReadSize()
	if err != nil {
		return false, err
	}
	if size == 0 {
		return false, nil
	}

	tmpPath := outPath + ".tmp-" + uuid.NewString()
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return false, err
	}

	buf := make([]byte, bufferSize)
	written, copyErr := io.CopyBuffer(tmp, io.LimitReader(fr.Reader(), size), buf)
	closeErr := tmp.Close()

	if copyErr != nil {
		os.Remove(tmpPath)
		return false, copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return false, closeErr
	}
	if written != size {
		os.Remove(tmpPath)
		return false, io.ErrUnexpectedEOF
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return false, err
	}
	return true, nil
}

// SendDataRemove fires a DATA_REMOVE request at peer p. Fire-and-forget:
// the server never replies.
func SendDataRemove(p peer.Address, digest string) error {
	conn, err := dial(p)
	if err != nil {
		return err
	}
	defer conn.Close()
	return protocol.WriteDataRemove(conn, digest)
}
