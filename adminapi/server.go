// Package adminapi exposes a read-only HTTP introspection surface for a
// running node: status counters, the current peer list, and a
// websocket stream of peer connect/disconnect events. It cannot issue
// CONNECT/DISCONNECT or uploads, so it does not reintroduce the
// access-control surface spec.md declares a non-goal — it plays the
// same purely observational role webapi/Status.go plays in the teacher.
//
// Grounded on webapi/API.go's router setup (github.com/gorilla/mux) and
// webapi/Status.go's status payload shape; the event stream generalizes
// webapi's own websocket search-result endpoints to peer events instead
// of search hits (github.com/gorilla/websocket).
package adminapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	core "github.com/filemesh/node"
	"github.com/filemesh/node/peer"
)

// Node is the subset of *core.Node the admin surface needs. Declared as
// an interface (core is the only implementer in this tree) so tests can
// supply a fake without standing up a real listener.
type Node interface {
	Peers() []peer.Address
	PeerCount() int
	ChunkCount() (int, error)
	ManifestCount() int
	Subscribe() (<-chan core.Event, func())
	RecentEvents() []core.Event
}

// Server is the read-only HTTP surface, routed with gorilla/mux.
type Server struct {
	node     Node
	router   *mux.Router
	log      *log.Logger
	upgrader websocket.Upgrader
}

// NewServer builds the router for node. A nil logger defaults to the
// standard logger.
func NewServer(node Node, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		node:   node,
		router: mux.NewRouter(),
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/peers", s.handlePeers).Methods(http.MethodGet)
	s.router.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	return s
}

// ServeHTTP lets Server be passed directly to http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statusResponse struct {
	Peers     int `json:"peers"`
	Chunks    int `json:"chunks"`
	Manifests int `json:"manifests"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.node.ChunkCount()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, statusResponse{
		Peers:     s.node.PeerCount(),
		Chunks:    chunks,
		Manifests: s.node.ManifestCount(),
	})
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.node.Peers())
}

// handleEvents upgrades to a websocket, replays recent history so a
// client connecting after the fact still sees what it missed, then
// streams live peer connect/disconnect events until a write to the
// client fails; a client that has gone away is noticed on the next
// event written. Node shutdown does not end the stream. Each connection gets a uuid
// purely for log correlation, the same role webapi/Upload.go's
// uploadStatus.ID plays for its jobs.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	connID := uuid.NewString()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("adminapi: events %s: upgrade: %v", connID, err)
		return
	}
	defer conn.Close()

	// Subscribe before replaying history so no event published during
	// the replay window is missed.
	events, unsubscribe := s.node.Subscribe()
	defer unsubscribe()

	for _, e := range s.node.RecentEvents() {
		if err := conn.WriteJSON(e); err != nil {
			s.log.Printf("adminapi: events %s: write: %v", connID, err)
			return
		}
	}

	for e := range events {
		if err := conn.WriteJSON(e); err != nil {
			s.log.Printf("adminapi: events %s: write: %v", connID, err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
