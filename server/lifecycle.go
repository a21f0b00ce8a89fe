package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nulltoken/heimdall2/config"
	"github.com/nulltoken/heimdall2/errors"
)

// getState returns the current server state
func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

// setState atomically updates the server state
func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Start runs the hub and serves HTTP on the configured host and the given
// port, falling back to a nearby port when it is taken. Blocks until the
// listener fails.
func (s *Server) Start(port int) error {
	// Start the hub in a goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	// Find an available port
	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}

	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			"actual_port", actualPort,
		)
	}

	host := s.cfg.Server.Host
	if host == "" {
		host = config.DefaultServerHost
	}

	s.logger.Infow("Server ready",
		"url", fmt.Sprintf("http://%s:%d", host, actualPort),
		"port", actualPort,
		"max_clients", s.maxClients,
	)

	addr := fmt.Sprintf("%s:%d", host, actualPort)
	return http.ListenAndServe(addr, s.mux)
}

// Stop gracefully shuts down the server and cleans up resources
func (s *Server) Stop() error {
	s.logger.Infow("Initiating server shutdown")

	s.setState(ServerStateDraining)

	// Close all client connections BEFORE cancelling context
	// This ensures readPump/writePump exit cleanly before context cancellation
	s.mu.Lock()
	clientsToClose := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clientsToClose = append(clientsToClose, client)
		delete(s.clients, client)
	}
	s.mu.Unlock()

	if len(clientsToClose) > 0 {
		s.logger.Infow("Closing client connections", "count", len(clientsToClose))
		for _, client := range clientsToClose {
			client.conn.Close() // Close connection to unblock readPump
		}
	}

	// Cancel context to signal all server goroutines to stop
	if s.cancel != nil {
		s.cancel()
	}

	// Wait for goroutines with timeout. They exit quickly now that the
	// connections are closed (unblocking readPump) and the context is
	// cancelled (stopping writePump and the hub).
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Goroutine shutdown timed out, forcing exit",
			"timeout", ShutdownTimeout,
		)
	}

	s.setState(ServerStateStopped)

	s.logger.Infow("Server shutdown complete",
		"broadcast_drops", s.broadcastDrops.Load(),
	)

	return nil
}
