// Package notify delivers user-facing event messages from the ingestion
// pipeline. Delivery is fire-and-forget: implementations must not block
// ingestion and no delivery confirmation exists.
package notify

import "github.com/nulltoken/heimdall2/logger"

// Ingestion summarizes one completed ingestion for display surfaces.
type Ingestion struct {
	EvaluationID string `json:"evaluation_id"`
	Filename     string `json:"filename"`
	Kind         string `json:"kind"`   // execution or profile
	Format       string `json:"format"` // detected source format, empty when pre-normalized
	Profiles     int    `json:"profiles"`
	Controls     int    `json:"controls"`
}

// Notifier receives pipeline events. The dispatcher reports unroutable
// uploads through Failure; the orchestrator reports each registered
// evaluation through Ingested.
type Notifier interface {
	Failure(message string)
	Ingested(event Ingestion)
}

// Nop discards all events. Useful as a default when no display surface
// is attached.
type Nop struct{}

func (Nop) Failure(string)     {}
func (Nop) Ingested(Ingestion) {}

// Log writes events to the process logger.
type Log struct{}

func (Log) Failure(message string) {
	logger.Warnw("notification", "message", message)
}

func (Log) Ingested(event Ingestion) {
	logger.Infow("ingested",
		logger.FieldEvaluationID, event.EvaluationID,
		logger.FieldFile, event.Filename,
		logger.FieldProfiles, event.Profiles,
		logger.FieldControls, event.Controls,
	)
}

// Multi fans events out to several notifiers in order.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

type multi []Notifier

func (m multi) Failure(message string) {
	for _, n := range m {
		n.Failure(message)
	}
}

func (m multi) Ingested(event Ingestion) {
	for _, n := range m {
		n.Ingested(event)
	}
}
