package core

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/filemesh/node/config"
	"github.com/filemesh/node/file"
	"github.com/filemesh/node/peer"
	"github.com/filemesh/node/warehouse"
)

// Logger is the logging contract injected into a Node at construction
// time: a single Printf method, with no separate log levels.
// *log.Logger satisfies it. Per spec.md's
// re-architecture note against global/singleton state, the node never
// touches a package-level logger: every log line goes through this
// interface.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Node is a single running participant of the file store (spec
// component C8): a bound listener, a peer registry, a chunk store, and
// a file layer, wired together and serving requests in the background.
type Node struct {
	self peer.Address

	ln        net.Listener
	registry  *peer.Registry
	warehouse *warehouse.Warehouse
	files     *file.Layer
	logger    Logger
	events    *eventBus

	mu           sync.Mutex
	shuttingDown bool
	done         chan struct{}
}

// New binds the listening socket named by cfg.Listen, opens the chunk
// store and manifest table under cfg.DataDir, and starts the accept
// loop in the background. Construction order follows spec.md §4.8:
// bind listener, create registry/store/manifest table, start
// accepting, return.
//
// A nil logger defaults to the standard log package writing to
// cfg.LogFile (or stderr if empty), matching Config.go's InitLog.
func New(cfg *config.Config, logger Logger) (*Node, error) {
	if logger == nil {
		var err error
		logger, err = defaultLogger(cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("core: init log: %w", err)
		}
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("core: listen on %s: %w", cfg.Listen, err)
	}

	host, _, err := net.SplitHostPort(cfg.Listen)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("core: parse listen address %s: %w", cfg.Listen, err)
	}
	tcpAddr := ln.Addr().(*net.TCPAddr)
	self := peer.Address{Host: host, Port: uint16(tcpAddr.Port)}

	wh, err := warehouse.Open(cfg.DataDir)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("core: open warehouse: %w", err)
	}

	registry := peer.NewRegistry(self)

	files, err := file.NewLayer(cfg.DataDir, registry, logger, cfg.PartSize, cfg.ReplicationFactor)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("core: load manifest table: %w", err)
	}

	n := &Node{
		self:      self,
		ln:        ln,
		registry:  registry,
		warehouse: wh,
		files:     files,
		logger:    logger,
		events:    newEventBus(),
		done:      make(chan struct{}),
	}

	go n.acceptLoop()
	return n, nil
}

// defaultLogger grounds the ambient logging stack in Filter.go's
// multiWriter pattern, simplified to a single stdlib *log.Logger since
// a Node only ever needs one destination.
func defaultLogger(logFile string) (Logger, error) {
	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}
	return log.New(w, "", log.LstdFlags), nil
}

// Self returns the node's own listening address.
func (n *Node) Self() peer.Address {
	return n.self
}

// Peers returns a detached snapshot of the currently known peers.
func (n *Node) Peers() []peer.Address {
	return n.registry.Snapshot()
}

// UploadFile splits path into fixed-size parts, replicates each across
// randomly chosen known peers, and persists the resulting manifest
// under its basename (spec.md §4.7).
func (n *Node) UploadFile(path string, encrypt bool) error {
	return n.files.Upload(path, encrypt)
}

// DownloadFile reassembles basename into outPath from whichever known
// peers still hold its parts (spec.md §4.7). Returns ErrPartial if not
// every part could be recovered.
func (n *Node) DownloadFile(basename, outPath string, decrypt bool) error {
	return n.files.Download(basename, outPath, decrypt)
}

// RemoveFile broadcasts removal of basename's parts to every known peer
// and drops its manifest entry.
func (n *Node) RemoveFile(basename string) error {
	return n.files.Remove(basename)
}

// Shutdown stops the accept loop and closes the listening socket. It
// follows spec.md §4.8's self-ping unblock trick: set a flag, fire a
// self-ping so the blocked Accept() call returns, join the accept task,
// then close the listener. Idempotent: a second call is a no-op.
func (n *Node) Shutdown() error {
	n.mu.Lock()
	if n.shuttingDown {
		n.mu.Unlock()
		return nil
	}
	n.shuttingDown = true
	n.mu.Unlock()

	if err := sendPing(n.self); err != nil {
		n.logger.Printf("core: shutdown self-ping: %v", err)
	}

	<-n.done
	return n.ln.Close()
}
