// Package web wires the node's HTTP surface: the JSON API, a
// server-sent-event stream of ledger changes, websocket feeds for logs
// and diagnostics, and the rendered operator docs.
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"roomledger.mini/rbl/internal/api"
	"roomledger.mini/rbl/internal/docs"
	"roomledger.mini/rbl/internal/kv"
	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/types"
)

// sseBroker manages SSE connections for broadcasting ledger updates
type sseBroker struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func newSSEBroker() *sseBroker {
	return &sseBroker{
		clients: make(map[chan []byte]struct{}),
	}
}

func (b *sseBroker) register(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
}

func (b *sseBroker) unregister(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, client)
	close(client)
}

func (b *sseBroker) broadcast(data []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- data:
		default:
			// Client is slow/blocked, skip
		}
	}
}

// Server is the web server for the booking API and live feeds.
type Server struct {
	store      *kv.SQLiteStore
	port       int
	logger     *logger.Logger
	sseBroker  *sseBroker
	apiService *api.Service
	docService *docs.Service
}

// NewServer creates a new web server over the given API service. store
// may be nil when running without persistence; the SSE stream then only
// carries keep-alives.
func NewServer(apiService *api.Service, store *kv.SQLiteStore, log *logger.Logger, port int) *Server {
	s := &Server{
		store:      store,
		port:       port,
		logger:     log,
		sseBroker:  newSSEBroker(),
		apiService: apiService,
		docService: docs.NewService("docs"),
	}

	s.logger.Info("rbl server initialized")

	if store != nil {
		go s.watchLedgerUpdates()
	}

	return s
}

// Logger returns the server's logger instance
func (s *Server) Logger() *logger.Logger {
	return s.logger
}

// Start initializes and runs the web server.
func (s *Server) Start() <-chan error {
	log.Printf("Web: Starting booking API server on http://localhost:%d", s.port)

	mux := http.NewServeMux()

	// Node routes
	mux.HandleFunc("/api/health", s.apiService.HandleHealth)
	mux.HandleFunc("/api/version", s.apiService.HandleVersion)
	mux.HandleFunc("/api/logs", s.apiService.HandleLogs)
	mux.HandleFunc("/api/payouts", s.apiService.HandlePayouts)

	// Ledger routes
	mux.HandleFunc("/api/tx", s.apiService.HandleTx)
	mux.HandleFunc("/api/rooms/add", s.apiService.HandleAddRoom)
	mux.HandleFunc("/api/rooms/available", s.apiService.HandleAvailableRooms)
	mux.HandleFunc("/api/rooms/owned", s.apiService.HandleOwnedRooms)
	mux.HandleFunc("/api/rooms/status", s.apiService.HandleRoomStatus)
	mux.HandleFunc("/api/bookings/book", s.apiService.HandleBookRoom)
	mux.HandleFunc("/api/bookings/checkin", s.apiService.HandleCheckIn)
	mux.HandleFunc("/api/bookings/checkout", s.apiService.HandleCheckOut)
	mux.HandleFunc("/api/bookings/owner", s.apiService.HandleOwnerBookings)
	mux.HandleFunc("/api/bookings/guest", s.apiService.HandleGuestBookings)

	// Persistence routes
	mux.HandleFunc("/api/backup", s.apiService.HandleBackup)
	mux.HandleFunc("/api/snapshot/export", s.apiService.HandleSnapshotExport)
	mux.HandleFunc("/api/snapshot/import", s.apiService.HandleSnapshotImport)

	// Live feeds
	mux.HandleFunc("/api/stream", s.handleLedgerStream)
	mux.HandleFunc("/ws/status", s.handleStatusWS)
	mux.HandleFunc("/ws/diagnostics", s.handleDiagnosticsWS)

	// Operator docs
	mux.HandleFunc("/docs", s.handleDocs)

	addr := fmt.Sprintf(":%d", s.port)
	errCh := make(chan error, 1)

	go func() {
		err := http.ListenAndServe(addr, mux)
		errCh <- err
		close(errCh)
	}()

	return errCh
}

// watchLedgerUpdates forwards store change notifications to SSE clients.
func (s *Server) watchLedgerUpdates() {
	for range s.store.Updates() {
		event, err := json.Marshal(map[string]interface{}{
			"type": "ledger_update",
			"time": time.Now().Format(time.RFC3339),
		})
		if err != nil {
			continue
		}
		s.sseBroker.broadcast([]byte(fmt.Sprintf("event: ledger\ndata: %s\n\n", event)))
	}
}

// handleLedgerStream establishes an SSE connection and streams ledger
// change events as they commit.
func (s *Server) handleLedgerStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable proxy buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan []byte, 10)
	s.sseBroker.register(clientChan)
	defer s.sseBroker.unregister(clientChan)

	s.logger.Info("SSE client connected for ledger updates")
	defer s.logger.Info("SSE client disconnected")

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-clientChan:
			w.Write(data)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// handleStatusWS streams log messages over a websocket: history first,
// then new messages as they arrive.
func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, _, ok := tryGorillaUpgrade(w, r)
	if !ok {
		log.Printf("WebSocket upgrade failed for status feed")
		return
	}
	defer conn.Close()

	writeMessage := func(msg logger.Message) bool {
		data, err := json.Marshal(msg)
		if err != nil {
			return false
		}
		return conn.WriteMessage(1, data) == nil // 1 = text message
	}

	// Send initial history, oldest first.
	initialLogs := s.logger.GetRecent(50)
	for i := len(initialLogs) - 1; i >= 0; i-- {
		if !writeMessage(initialLogs[i]) {
			return
		}
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastLogTime time.Time
	if len(initialLogs) > 0 {
		lastLogTime = initialLogs[0].Timestamp
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			recent := s.logger.GetRecent(20)

			var newLogs []logger.Message
			for _, msg := range recent {
				if msg.Timestamp.After(lastLogTime) {
					newLogs = append(newLogs, msg)
				}
			}

			for i := len(newLogs) - 1; i >= 0; i-- {
				msg := newLogs[i]
				if !writeMessage(msg) {
					return
				}
				if msg.Timestamp.After(lastLogTime) {
					lastLogTime = msg.Timestamp
				}
			}
		}
	}
}

// handleDiagnosticsWS periodically pushes node diagnostics.
func (s *Server) handleDiagnosticsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			roomCount := 0
			if s.store != nil {
				if pairs, err := s.store.List(kv.BucketRooms); err == nil {
					roomCount = len(pairs)
				}
			}

			msg := map[string]interface{}{
				"time":       time.Now().Format("2006-01-02 15:04:05"),
				"version":    types.Version,
				"room_count": roomCount,
			}

			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// handleDocs serves operator docs: without a doc parameter it lists the
// available documents, with one it returns the rendered HTML.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	docName := r.URL.Query().Get("doc")
	if docName == "" {
		docList, err := s.docService.ListDocs()
		if err != nil {
			http.Error(w, "Failed to list docs", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(docList)
		return
	}

	content, err := s.docService.GetDoc(r.Context(), docName)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to load doc %s: %v", docName, err))
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, content)
}
