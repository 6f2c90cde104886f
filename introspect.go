package core

import (
	"os"

	"github.com/filemesh/node/protocol"
	"github.com/filemesh/node/warehouse"
)

// PeerCount returns the number of peers currently known, a cheap
// read-only figure adminapi's /status endpoint surfaces (webapi/Status.go
// plays the equivalent role in the teacher).
func (n *Node) PeerCount() int {
	return len(n.registry.Snapshot())
}

// ChunkCount returns the number of chunks held in this node's data
// directory. The directory also holds the manifest table and any
// per-file key blobs, so only entries that look like a digest are
// counted.
func (n *Node) ChunkCount() (int, error) {
	entries, err := os.ReadDir(n.warehouse.Dir())
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if len(e.Name()) != warehouse.DigestSize {
			continue
		}
		if protocol.ValidateDigest(e.Name()) != nil {
			continue
		}
		count++
	}
	return count, nil
}

// ManifestCount returns the number of filenames this node has uploaded.
func (n *Node) ManifestCount() int {
	return n.files.ManifestCount()
}
