package server

// This file carries pipeline events to WebSocket clients:
// - notification: uploads no converter could route
// - ingest_update: each evaluation the pipeline registers
// - selection_update: the selected ID set after any change

import (
	"time"

	"github.com/nulltoken/heimdall2/logger"
	"github.com/nulltoken/heimdall2/notify"
)

// broadcastMessage sends a message to all connected clients.
// Returns the number of clients that accepted the message (channel not full).
// Clients whose channel stays full are handed to the hub for removal.
func (s *Server) broadcastMessage(msg interface{}) int {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		select {
		case client.send <- msg:
			sent++
		default:
			s.broadcastDrops.Add(1)
			select {
			case s.slow <- client:
			default:
				// Removal queue full, the next broadcast retries
			}
		}
	}
	return sent
}

// broadcastSelectionUpdate pushes the current selected ID set to all clients
func (s *Server) broadcastSelectionUpdate() {
	msg := SelectionUpdateMessage{
		Type:      "selection_update",
		Selected:  s.selection.Selected(),
		Timestamp: time.Now().Unix(),
	}
	s.broadcastMessage(msg)
}

// Failure implements notify.Notifier. Dispatch failures become notification
// messages so the dashboard can surface them to the user.
func (s *Server) Failure(message string) {
	msg := NotificationMessage{
		Type:      "notification",
		Level:     "error",
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
	sent := s.broadcastMessage(msg)

	s.logger.Debugw("Notification broadcast",
		"message", message,
		"clients", sent,
	)
}

// Ingested implements notify.Notifier. Each registered evaluation is
// announced to all clients, followed by the selection set it joined.
func (s *Server) Ingested(event notify.Ingestion) {
	msg := IngestUpdateMessage{
		Type:         "ingest_update",
		EvaluationID: event.EvaluationID,
		Filename:     event.Filename,
		Kind:         event.Kind,
		Format:       event.Format,
		Profiles:     event.Profiles,
		Controls:     event.Controls,
		Timestamp:    time.Now().Unix(),
	}
	sent := s.broadcastMessage(msg)

	s.logger.Debugw("Ingest update broadcast",
		logger.FieldEvaluationID, shortID(event.EvaluationID),
		"clients", sent,
	)

	// Registration auto-selects, so the selection set changed too
	s.broadcastSelectionUpdate()
}
