package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nulltoken/heimdall2/errors"
)

// ErrorResponse represents an API error with optional structured context
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"` // Structured error context from errors.GetAllDetails()
	Hints   []string `json:"hints,omitempty"`   // User-facing hints from errors.GetAllHints()
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeWrappedError wraps err with context, logs it, and writes a JSON error
// response carrying any structured details or hints attached along the way.
func writeWrappedError(w http.ResponseWriter, log *zap.SugaredLogger, err error, message string, status int) {
	wrapped := errors.Wrap(err, message)
	log.Errorw(message, "error", err.Error(), "status", status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   wrapped.Error(),
		Details: errors.GetAllDetails(wrapped),
		Hints:   errors.GetAllHints(wrapped),
	}); encodeErr != nil {
		log.Errorw("Failed to encode error response", "error", encodeErr.Error())
	}
}

// extractPathParts splits the request path after prefix into its segments.
// extractPathParts("/api/evaluations/abc/select", "/api/evaluations/")
// returns ["abc", "select"].
func extractPathParts(path, prefix string) []string {
	trimmed := strings.TrimPrefix(path, prefix)
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// readJSON reads and decodes a JSON request body
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return err
	}
	return nil
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// requireMethods checks if the request method matches one of the expected methods
func requireMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// shortID truncates an ID to 8 characters for logging
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
