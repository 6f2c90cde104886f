package file

import (
	"io"
	"log"

	"github.com/filemesh/node/peer"
)

// Logger is the minimal logging contract the file layer needs: a single
// Printf method, with no separate log levels. *log.Logger satisfies it,
// so callers that already have one (as core does) can pass it straight
// through; tests pass nil, which NewLayer replaces with a logger that
// discards its output.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Layer is the file-splitting/replication/reassembly surface (spec
// component C7). It owns no listening socket of its own: it drives the
// transport package's client calls against whatever peers are currently
// in registry.
type Layer struct {
	dataDir     string
	registry    *peer.Registry
	table       *ManifestTable
	logger      Logger
	partSize    int64
	replication int
}

// NewLayer opens (or creates) the manifest table under dataDir and
// returns a Layer ready to upload, download and remove files. partSize
// is the fixed part size P and replication is the fixed replication
// factor R, both spec.md §4.7 constants chosen by the implementer.
func NewLayer(dataDir string, registry *peer.Registry, logger Logger, partSize int64, replication int) (*Layer, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	table, err := LoadManifestTable(dataDir)
	if err != nil {
		return nil, err
	}
	return &Layer{
		dataDir:     dataDir,
		registry:    registry,
		table:       table,
		logger:      logger,
		partSize:    partSize,
		replication: replication,
	}, nil
}

// ManifestCount returns the number of basenames this node has uploaded.
func (l *Layer) ManifestCount() int {
	return l.table.Len()
}
