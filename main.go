// Package main is the entry point for roomLedger mini (rbl).
// It wires config, node identity, the persistent KV store, the booking
// ledger, settlement, and the web server.
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"roomledger.mini/rbl/internal/api"
	"roomledger.mini/rbl/internal/chain"
	"roomledger.mini/rbl/internal/config"
	"roomledger.mini/rbl/internal/identity"
	"roomledger.mini/rbl/internal/kv"
	"roomledger.mini/rbl/internal/ledger"
	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/settle"
	"roomledger.mini/rbl/internal/web"
)

func main() {
	log.Println("roomLedger mini starting...")

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	id, err := identity.LoadOrCreateIdentity(cfg.KeyFile)
	if err != nil {
		log.Fatalf("Failed to load node identity: %v", err)
	}
	log.Printf("Node identity: %s", id.PublicKeyHex())

	store, err := kv.NewSQLiteStore(cfg.DataFile)
	if err != nil {
		log.Fatalf("Failed to initialize ledger store: %v", err)
	}
	defer store.Close()
	log.Println("Ledger store initialized")

	ringLog := logger.New(cfg.LogBufferSize)

	// Settlement: payouts go to the configured agent when enabled,
	// otherwise they are recorded locally. Either way the booking path
	// only enqueues.
	recorder := settle.NewRecorder(ringLog)
	var backend settle.Transferer = recorder
	if cfg.EnablePayouts && cfg.PayoutAgentURL != "" {
		backend = settle.NewAgent(cfg.PayoutAgentURL, ringLog)
		log.Printf("Payouts dispatched to agent at %s", cfg.PayoutAgentURL)
	}
	dispatcher := settle.NewDispatcher(backend, 64, ringLog)
	defer dispatcher.Close()

	led := ledger.New(store, dispatcher, ringLog)
	app := chain.New(led, ringLog)

	port := resolvePort(cfg.Port)
	if err := ensurePortAvailable(port); err != nil {
		log.Fatalf("Port %d unavailable: %v", port, err)
	}

	apiService := api.NewService(led, app, store, recorder, ringLog)
	server := web.NewServer(apiService, store, ringLog, port)

	serverErrors := server.Start()
	go func() {
		if err := <-serverErrors; err != nil {
			log.Fatalf("Web server exited: %v", err)
		}
	}()
	log.Printf("Booking API available at http://localhost:%d", port)

	if cfg.PayoutAgentAddr != "" {
		go func() {
			log.Printf("Payout agent listening on %s", cfg.PayoutAgentAddr)
			if err := settle.ServeAgent(cfg.PayoutAgentAddr, func(req settle.PayoutRequest) error {
				return recorder.Transfer(req.To, req.Amount)
			}); err != nil {
				log.Printf("Warning: payout agent exited: %v", err)
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
}

func resolvePort(defaultPort int) int {
	portStr := os.Getenv("PORT")
	if portStr == "" {
		return defaultPort
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		log.Printf("Warning: invalid PORT value %q, using %d", portStr, defaultPort)
		return defaultPort
	}

	return port
}

func ensurePortAvailable(port int) error {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return listener.Close()
}
