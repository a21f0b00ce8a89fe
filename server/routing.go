package server

import (
	"net/http"
)

// setupHTTPRoutes configures all HTTP handlers on the server's mux.
func (s *Server) setupHTTPRoutes() {
	s.mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))                   // Live updates (notifications, ingest, selection)
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))                  // Liveness plus system stats
	s.mux.HandleFunc("/api/version", s.corsMiddleware(s.HandleVersion))            // Build information (GET)
	s.mux.HandleFunc("/api/config", s.corsMiddleware(s.HandleConfig))              // Effective configuration (GET), runtime updates (POST/PATCH)
	s.mux.HandleFunc("/api/converters", s.corsMiddleware(s.HandleConverters))      // Converter registry listing (GET)
	s.mux.HandleFunc("/api/evaluations", s.corsMiddleware(s.HandleEvaluations))    // List loaded evaluations (GET)
	s.mux.HandleFunc("/api/evaluations/", s.corsMiddleware(s.HandleEvaluation))    // Detail/remove/select/deselect by ID
	s.mux.HandleFunc("/api/upload", s.corsMiddleware(s.HandleUpload))              // Multipart report upload (POST)
}

// corsMiddleware adds CORS headers to HTTP responses using configured allowed origins
// Uses the same origin validation as WebSocket connections (server.allowed_origins config)
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// If origin is present and allowed by config, set CORS headers
		if origin != "" && checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
