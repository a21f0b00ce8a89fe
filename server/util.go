package server

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/nulltoken/heimdall2/config"
)

// newUpgrader creates a WebSocket upgrader with origin checking from config
func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     checkOrigin,
	}
}

// checkOrigin validates a request origin against configured allowed origins
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Allow requests with no origin header (e.g., direct WebSocket clients, testing)
	if origin == "" {
		return true
	}

	cfg, err := config.Load()
	if err != nil {
		// If config fails to load, use secure defaults (localhost only)
		return strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "https://localhost")
	}

	// Prefix matching so any port number on an allowed host is accepted
	for _, allowedOrigin := range cfg.GetServerAllowedOrigins() {
		if strings.HasPrefix(origin, allowedOrigin) {
			return true
		}
	}

	return false
}

// isPortAvailable checks if a port is available for binding
func isPortAvailable(port int) bool {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = listener.Close() // Error ignored: best-effort port check, caller will retry on actual bind
	return true
}

// findAvailablePort tries the requested port first, then the default port,
// then up to 10 ports above the requested one.
func findAvailablePort(requestedPort int) (int, error) {
	if isPortAvailable(requestedPort) {
		return requestedPort, nil
	}

	if config.DefaultServerPort != requestedPort && isPortAvailable(config.DefaultServerPort) {
		return config.DefaultServerPort, nil
	}

	for i := 1; i <= 10; i++ {
		port := requestedPort + i
		if isPortAvailable(port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("no available ports found (tried %d, %d, and range %d-%d)",
		requestedPort, config.DefaultServerPort, requestedPort+1, requestedPort+10)
}
