package server

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/logger"
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second
)

// Client represents a WebSocket client connection
type Client struct {
	server    *Server
	conn      *websocket.Conn
	send      chan interface{}
	id        string
	closeOnce sync.Once // Prevents double-close panics
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	// Configure connection limits and timeouts per Gorilla best practices.
	// The read limit must admit a base64-encoded upload at the configured
	// cap (base64 inflates payloads by a third).
	c.conn.SetReadLimit(c.server.maxUploadBytes*4/3 + 1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.server.logger.Debugw("Read pump started", "client_id", c.id)

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			break
		}

		if logger.ShouldOutput(int(c.server.verbosity.Load()), logger.OutputDataDump) {
			c.server.logger.Debugw("Received WebSocket message",
				"client_id", c.id,
				"size_bytes", len(messageBytes),
			)
		}

		var msg ClientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.server.logger.Warnw("JSON unmarshal error",
				"error", err.Error(),
				"client_id", c.id,
			)
			continue
		}

		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		c.server.logger.Warnw("WebSocket read error",
			"client_id", c.id,
			"error", err.Error(),
		)
	}
}

// routeMessage dispatches incoming WebSocket messages to appropriate handlers
func (c *Client) routeMessage(msg *ClientMessage) {
	switch msg.Type {
	case "upload":
		c.handleUpload(msg.Filename, msg.Data)
	case "select", "deselect":
		c.handleSelection(msg.Type, msg.EvaluationID)
	case "set_verbosity":
		c.handleSetVerbosity(msg.Verbosity)
	case "ping":
		// Just update deadline, handled by pong handler
	default:
		c.server.logger.Debugw("Unknown message type",
			"type", msg.Type,
			"client_id", c.id,
		)
	}
}

// writePump writes queued messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.server.logger.Debugw("Write pump started", "client_id", c.id)

	for {
		select {
		case <-c.server.ctx.Done():
			c.server.logger.Debugw("Write pump stopping due to server shutdown", "client_id", c.id)
			return
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Debugw("Message write error",
					"error", err.Error(),
					"client_id", c.id,
				)
				// Don't return - a dead connection fails the next ping write
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleUpload runs an uploaded file through the ingestion pipeline.
// The upload is processed in a goroutine so a large conversion cannot
// stall the read pump.
func (c *Client) handleUpload(filename, data string) {
	c.server.logger.Infow("File upload received",
		"client_id", c.id,
		logger.FieldFilename, filename,
		"data_length", len(data),
	)

	c.server.wg.Add(1)
	go func() {
		defer c.server.wg.Done()

		decoded, err := base64Decode(data, c.server.maxUploadBytes)
		if err != nil {
			c.server.logger.Errorw("Failed to decode upload data",
				"client_id", c.id,
				logger.FieldFilename, filename,
				"error", err,
			)
			c.sendJSON(ErrorMessage{Type: "error", Message: err.Error(), Timestamp: time.Now().Unix()})
			return
		}

		result, err := c.server.orchestrator.LoadFile(c.server.ctx, filename, []byte(decoded))
		if err != nil {
			c.server.logger.Errorw("Upload ingestion failed",
				"client_id", c.id,
				logger.FieldFilename, filename,
				"error", err,
			)
			c.sendJSON(ErrorMessage{Type: "error", Message: err.Error(), Timestamp: time.Now().Unix()})
			return
		}

		c.sendJSON(UploadResultMessage{
			Type:      "upload_result",
			Result:    result,
			Timestamp: time.Now().Unix(),
		})
	}()
}

// handleSelection applies a select or deselect request and broadcasts the
// resulting selection state to all clients.
func (c *Client) handleSelection(op, id string) {
	if id == "" {
		c.sendJSON(ErrorMessage{Type: "error", Message: "evaluation_id is required", Timestamp: time.Now().Unix()})
		return
	}
	if _, ok := c.server.store.Get(id); !ok {
		c.sendJSON(ErrorMessage{Type: "error", Message: "no such evaluation: " + id, Timestamp: time.Now().Unix()})
		return
	}

	var changed bool
	if op == "select" {
		changed = c.server.selection.Select(id)
	} else {
		changed = c.server.selection.Deselect(id)
	}

	c.server.logger.Infow("Selection changed via WebSocket",
		"client_id", c.id,
		logger.FieldEvaluationID, shortID(id),
		"op", op,
		"changed", changed,
	)

	c.server.broadcastSelectionUpdate()
}

// handleSetVerbosity updates the server verbosity level
func (c *Client) handleSetVerbosity(verbosity int) {
	oldVerbosity := int(c.server.verbosity.Load())
	c.server.verbosity.Store(int32(verbosity))

	c.server.logger.Infow("Verbosity level changed",
		"client_id", c.id,
		"old_verbosity", oldVerbosity,
		"new_verbosity", verbosity,
		"level_name", logger.LevelName(verbosity),
	)
}

// sendJSON is a helper to send JSON messages to the client
func (c *Client) sendJSON(data interface{}) {
	select {
	case c.send <- data:
		// Message queued successfully
	default:
		c.server.logger.Warnw("Failed to queue message (channel full)",
			"client_id", c.id,
		)
	}
}

// base64Decode decodes a base64 upload payload, enforcing the size cap
// before allocation so an oversized payload cannot exhaust memory.
func base64Decode(data string, maxSize int64) (string, error) {
	// Base64 encoding adds ~33% overhead, so decoded size = len(data) * 3/4
	estimatedSize := int64(len(data)) * 3 / 4
	if estimatedSize > maxSize {
		return "", errors.Newf("upload too large: estimated %d bytes exceeds %d byte limit", estimatedSize, maxSize)
	}

	bytes, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", errors.Wrap(err, "base64 decode failed")
	}

	// Verify actual decoded size doesn't exceed limit
	if int64(len(bytes)) > maxSize {
		return "", errors.Newf("upload too large: %d bytes exceeds %d byte limit", len(bytes), maxSize)
	}

	return string(bytes), nil
}

// close safely closes the client's channel using sync.Once to prevent
// double-close panics
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.send != nil {
			close(c.send)
		}
	})
}
