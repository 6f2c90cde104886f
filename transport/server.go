package transport

import (
	"io"

	"github.com/filemesh/node/protocol"
	"github.com/filemesh/node/warehouse"
)

// HandleDataAdd reads the DATA_ADD header from fr (the tag has already
// been consumed by the dispatcher) and streams the declared number of
// bytes into the warehouse, computing the digest on the fly. Returns the
// stored digest. On a short payload, no chunk is published and the error
// is returned for the caller to log.
func HandleDataAdd(fr *protocol.FieldReader, wh *warehouse.Warehouse) (digest string, err error) {
	size, err := fr.ReadSize()
	if err != nil {
		return "", err
	}
	return wh.PutExpecting(fr.Reader(), size)
}

// HandleDataGet reads the DATA_GET header from fr and streams the
// response (a decimal size followed by the raw bytes, or size 0 for
// NOT_FOUND) to w.
func HandleDataGet(fr *protocol.FieldReader, wh *warehouse.Warehouse, w io.Writer) error {
	digest, err := fr.ReadDigest()
	if err != nil {
		return err
	}

	f, err := wh.OpenChunk(digest)
	if err == warehouse.ErrNotFound {
		return protocol.WriteSize(w, 0)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err := protocol.WriteSize(w, info.Size()); err != nil {
		return err
	}

	buf := make([]byte, bufferSize)
	_, err = io.CopyBuffer(w, f, buf)
	return err
}

// HandleDataRemove reads the DATA_REMOVE header from fr and deletes the
// chunk if present; absence is not an error.
func HandleDataRemove(fr *protocol.FieldReader, wh *warehouse.Warehouse) error {
	digest, err := fr.ReadDigest()
	if err != nil {
		return err
	}
	return wh.Remove(digest)
}
