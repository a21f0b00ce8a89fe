package server

import (
	"time"

	"github.com/nulltoken/heimdall2/intake"
	"github.com/nulltoken/heimdall2/store"
)

const (
	// MaxClientMessageQueueSize is the size of per-client message queues
	MaxClientMessageQueueSize = 256
	// ShutdownTimeout is how long to wait for graceful shutdown.
	// Pumps exit once their connections close, so this only needs to cover
	// the write deadline plus slack.
	ShutdownTimeout = 15 * time.Second
)

// ServerState represents the server lifecycle state
type ServerState int

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

// ClientMessage represents a message received from a WebSocket client
type ClientMessage struct {
	Type         string `json:"type"`          // "upload", "select", "deselect", "set_verbosity", "ping"
	Filename     string `json:"filename"`      // For upload messages
	Data         string `json:"data"`          // For upload messages: base64 encoded file content
	EvaluationID string `json:"evaluation_id"` // For select/deselect messages
	Verbosity    int    `json:"verbosity"`     // For set_verbosity messages
}

// NotificationMessage carries a user-facing pipeline event, such as an
// upload no converter could route.
type NotificationMessage struct {
	Type      string `json:"type"`      // "notification"
	Level     string `json:"level"`     // "error", "warning", "info"
	Message   string `json:"message"`   // Human-readable text
	Timestamp int64  `json:"timestamp"` // Unix timestamp
}

// IngestUpdateMessage reports one evaluation registered by the pipeline
type IngestUpdateMessage struct {
	Type         string `json:"type"`             // "ingest_update"
	EvaluationID string `json:"evaluation_id"`    // Minted identifier
	Filename     string `json:"filename"`         // Originating filename
	Kind         string `json:"kind"`             // "execution" or "profile"
	Format       string `json:"format,omitempty"` // Detected source format, empty when pre-normalized
	Profiles     int    `json:"profiles"`         // Profile count
	Controls     int    `json:"controls"`         // Control count
	Timestamp    int64  `json:"timestamp"`        // Unix timestamp
}

// SelectionUpdateMessage carries the full selected ID set after any change.
// Clients replace their local selection state rather than applying deltas.
type SelectionUpdateMessage struct {
	Type      string   `json:"type"`      // "selection_update"
	Selected  []string `json:"selected"`  // Selected evaluation IDs in first-selection order
	Timestamp int64    `json:"timestamp"` // Unix timestamp
}

// EvaluationsMessage carries the full evaluation listing. Sent to newly
// connected clients so a hard refresh shows current state immediately.
type EvaluationsMessage struct {
	Type        string            `json:"type"`        // "evaluations"
	Evaluations []EvaluationEntry `json:"evaluations"` // Listing in registration order
	Timestamp   int64             `json:"timestamp"`   // Unix timestamp
}

// ErrorMessage reports a failed client request back to the sender only
type ErrorMessage struct {
	Type      string `json:"type"`      // "error"
	Message   string `json:"message"`   // Error description
	Timestamp int64  `json:"timestamp"` // Unix timestamp
}

// UploadResultMessage returns the per-file pipeline result to the client
// that sent an upload message. Registered evaluations additionally reach
// all clients through ingest_update broadcasts.
type UploadResultMessage struct {
	Type      string             `json:"type"`      // "upload_result"
	Result    *intake.FileResult `json:"result"`    // Full per-file outcome
	Timestamp int64              `json:"timestamp"` // Unix timestamp
}

// EvaluationEntry is a listing row with its selection flag. Shared by the
// REST listing endpoint and the WebSocket snapshot message.
type EvaluationEntry struct {
	store.Summary
	Selected bool `json:"selected"`
}
