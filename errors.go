// Package core ties together the peer registry (C2), the listener and
// dispatcher (C3), the membership protocol (C4), the chunk store (C5)
// and transport (C6), and the file layer (C7) into one running node
// (C8 lifecycle).
//
// Grounded on Peernet.go's Init/Connect sequencing and Backend struct,
// generalized from Peernet's UDP/UDT/Kademlia/blockchain stack to the
// spec's plain TCP request/response protocol.
package core

import (
	"errors"
	"io"

	"github.com/filemesh/node/file"
	"github.com/filemesh/node/protocol"
)

// Sentinel errors for the error kinds spec.md §7 names. Transport and
// filesystem errors have no sentinel of their own: they are returned as
// produced by the net and os packages, wrapped with context.
var (
	// ErrSelfContact is returned by SendConnect, SendDisconnect and
	// SendGetPeers when called with the node's own address.
	ErrSelfContact = errors.New("core: operation targets own address")

	// ErrMalformedMessage is protocol.ErrMalformed, surfaced under the
	// core package too so callers need not import protocol just to
	// check this error kind.
	ErrMalformedMessage = protocol.ErrMalformed

	// ErrShortPayload is io.ErrUnexpectedEOF, the exact error
	// warehouse.PutExpecting (via transport.HandleDataAdd) returns when
	// a DATA_ADD connection closes before the declared size is reached.
	ErrShortPayload = io.ErrUnexpectedEOF

	// ErrNotFound is file.ErrNotFound, returned by DownloadFile for an
	// unrecognized basename (RemoveFile treats an unrecognized basename
	// as a no-op and returns nil).
	ErrNotFound = file.ErrNotFound

	// ErrPartial is file.ErrPartial, returned by DownloadFile when not
	// every part could be recovered from currently known peers.
	ErrPartial = file.ErrPartial
)
