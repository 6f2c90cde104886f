// Command filemeshd runs a single file-store node: it loads a YAML
// config, starts the node, optionally joins an existing network, and
// optionally starts the admin HTTP surface and the LAN discovery
// beacon, then blocks until it receives an interrupt or termination
// signal.
package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	core "github.com/filemesh/node"
	"github.com/filemesh/node/adminapi"
	"github.com/filemesh/node/config"
	"github.com/filemesh/node/discovery"
	"github.com/filemesh/node/peer"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the node's YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("filemeshd: load config: %v", err)
		if strings.HasPrefix(err.Error(), "yaml:") {
			return core.ExitErrorConfigParse
		}
		return core.ExitErrorConfigRead
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	node, err := core.New(cfg, logger)
	if err != nil {
		log.Printf("filemeshd: start node: %v", err)
		if strings.Contains(err.Error(), "warehouse") {
			return core.ExitErrorWarehouse
		}
		return core.ExitErrorListen
	}
	logger.Printf("filemeshd: listening on %s", node.Self())

	for _, seed := range cfg.SeedPeers {
		addr, err := parseSeedAddress(seed)
		if err != nil {
			logger.Printf("filemeshd: skipping invalid seed %q: %v", seed, err)
			continue
		}
		node.JoinNetwork(addr)
	}

	var adminSrv *http.Server
	if cfg.AdminListen != "" {
		srv := adminapi.NewServer(node, logger)
		adminSrv = &http.Server{Addr: cfg.AdminListen, Handler: srv}
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("filemeshd: admin server: %v", err)
			}
		}()
		logger.Printf("filemeshd: admin surface on %s", cfg.AdminListen)
	}

	var beacon *discovery.Beacon
	if cfg.Discovery {
		beacon = discovery.NewBeacon(node.Self(), node, logger)
		if err := beacon.Start(); err != nil {
			logger.Printf("filemeshd: discovery disabled: %v", err)
			beacon = nil
		}
	}

	waitForSignal()
	logger.Printf("filemeshd: shutting down")

	if beacon != nil {
		beacon.Stop()
	}
	if adminSrv != nil {
		adminSrv.Close()
	}
	if err := node.Shutdown(); err != nil {
		logger.Printf("filemeshd: shutdown: %v", err)
	}

	return core.ExitGraceful
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}

// parseSeedAddress parses a "host:port" seed entry from Config.SeedPeers.
func parseSeedAddress(s string) (peer.Address, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return peer.Address{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return peer.Address{}, err
	}
	return peer.Address{Host: host, Port: uint16(port)}, nil
}
