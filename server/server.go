// Package server exposes the ingestion pipeline over HTTP and WebSocket:
// multipart and base64 uploads feed the orchestrator, evaluation and
// selection state is queryable and broadcast live to connected clients.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nulltoken/heimdall2/config"
	"github.com/nulltoken/heimdall2/convert"
	"github.com/nulltoken/heimdall2/intake"
	"github.com/nulltoken/heimdall2/logger"
	"github.com/nulltoken/heimdall2/notify"
	"github.com/nulltoken/heimdall2/store"
	"github.com/nulltoken/heimdall2/version"
)

// Server serves evaluations over HTTP and pushes pipeline events to
// WebSocket clients. It implements notify.Notifier, so ingestions from any
// entry point it owns (REST upload, WS upload, watched directories) reach
// every connected client.
type Server struct {
	cfg          *config.Config
	store        *store.Store
	selection    *store.Selection
	registry     *convert.Registry
	orchestrator *intake.Orchestrator

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	slow       chan *Client // full-buffer clients queued for removal
	mu         sync.RWMutex

	maxClients     int   // resolved at init, never changes
	maxUploadBytes int64 // resolved at init, never changes

	mux       *http.ServeMux
	verbosity atomic.Int32
	logger    *zap.SugaredLogger
	startedAt time.Time

	// Lifecycle management
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	broadcastDrops atomic.Int64
	state          atomic.Int32
}

// NewServer wires a server around shared evaluation state. The server
// builds its own dispatcher and orchestrator so that everything ingested
// through it is announced to connected clients as well as the process log.
func NewServer(cfg *config.Config, st *store.Store, sel *store.Selection, registry *convert.Registry, verbosity int) (*Server, error) {
	if cfg == nil {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:            cfg,
		store:          st,
		selection:      sel,
		registry:       registry,
		clients:        make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		slow:           make(chan *Client, 16),
		maxClients:     cfg.GetMaxClients(),
		maxUploadBytes: cfg.MaxUploadBytes(),
		mux:            http.NewServeMux(),
		logger:         logger.ComponentLogger("server"),
		startedAt:      time.Now(),
		ctx:            ctx,
		cancel:         cancel,
	}
	s.verbosity.Store(int32(verbosity))

	notifier := notify.Multi(notify.Log{}, s)
	dispatcher := convert.NewDispatcher(registry, notifier)
	s.orchestrator = intake.NewOrchestrator(st, sel, dispatcher, notifier)

	s.setupHTTPRoutes()
	return s, nil
}

// Orchestrator returns the server's pipeline entry point. Subsystems that
// ingest on the server's behalf (directory watchers) use it so their
// results are broadcast like any other upload.
func (s *Server) Orchestrator() *intake.Orchestrator {
	return s.orchestrator
}

// handleClientRegister handles a new client connection
func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()

	if len(s.clients) >= s.maxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			"client_id", client.id,
			"max_clients", s.maxClients,
		)
		client.close()
		return
	}

	s.clients[client] = true
	totalClients := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client connected",
		"client_id", client.id,
		"total_clients", totalClients,
	)

	// Replay current state so a freshly connected client renders without
	// waiting for the next change. The send channel is buffered and the
	// write pump drains it, so queueing here cannot block the hub.
	snapshot := EvaluationsMessage{
		Type:        "evaluations",
		Evaluations: s.evaluationEntries(),
		Timestamp:   time.Now().Unix(),
	}
	select {
	case client.send <- snapshot:
	default:
		s.logger.Warnw("Client send channel full, skipping state snapshot", "client_id", client.id)
	}
}

// handleClientUnregister handles a client disconnection
func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		totalClients := len(s.clients)
		s.mu.Unlock()

		client.close()

		s.logger.Infow("Client disconnected",
			"client_id", client.id,
			"total_clients", totalClients,
		)
	} else {
		s.mu.Unlock()
	}
}

// removeSlowClient removes a client whose send channel stayed full during a
// broadcast. Only called from the hub goroutine, so channel close is safe.
func (s *Server) removeSlowClient(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		s.mu.Unlock()
	} else {
		s.mu.Unlock()
		return // Already removed
	}

	client.close()

	s.logger.Warnw("Client send channel full, removing client",
		"client_id", client.id,
		"total_drops", s.broadcastDrops.Load(),
	)
}

// Run starts the server hub event loop
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case client := <-s.slow:
			s.removeSlowClient(client)
		}
	}
}

// evaluationEntries builds the listing rows with selection flags
func (s *Server) evaluationEntries() []EvaluationEntry {
	summaries := s.store.Summaries()
	entries := make([]EvaluationEntry, 0, len(summaries))
	for _, summary := range summaries {
		entries = append(entries, EvaluationEntry{
			Summary:  summary,
			Selected: s.selection.IsSelected(summary.ID),
		})
	}
	return entries
}

// versionMessage builds the greeting sent to each client before its pumps
// start.
func versionMessage() map[string]interface{} {
	info := version.Get()
	return map[string]interface{}{
		"type":       "version",
		"version":    info.Version,
		"commit":     info.Short(),
		"build_time": info.BuildTime,
	}
}

// Global server instance for subsystems started outside the server
var (
	defaultServer   *Server
	defaultServerMu sync.RWMutex
)

// SetDefaultServer sets the global server instance
func SetDefaultServer(s *Server) {
	defaultServerMu.Lock()
	defer defaultServerMu.Unlock()
	defaultServer = s
}

// GetDefaultServer returns the global server instance
func GetDefaultServer() *Server {
	defaultServerMu.RLock()
	defer defaultServerMu.RUnlock()
	return defaultServer
}
