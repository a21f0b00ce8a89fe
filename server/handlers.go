package server

// This file contains HTTP handler methods for Server.
// It provides HTTP endpoints for:
// - WebSocket connections (HandleWebSocket)
// - Multipart report uploads (HandleUpload)
// - Evaluation listing, detail, and selection (HandleEvaluations, HandleEvaluation)
// - Converter registry listing (HandleConverters)
// - Health checks (HandleHealth)
// - Configuration API (HandleConfig)
// - Build information (HandleVersion)

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/nulltoken/heimdall2/config"
	"github.com/nulltoken/heimdall2/hdf"
	"github.com/nulltoken/heimdall2/logger"
	"github.com/nulltoken/heimdall2/version"
)

// Upload screening. Extensions cover the formats the converter registry
// understands; content types cover what http.DetectContentType reports for
// them (JSON and ScoutSuite .js exports sniff as text/plain, Nessus and the
// other XML exports as text/xml or application/xml).
var allowedUploadExtensions = map[string]bool{
	".json":   true,
	".xml":    true,
	".nessus": true,
	".js":     true,
	".txt":    true,
}

var allowedUploadContentTypes = map[string]bool{
	"application/json": true,
	"application/xml":  true,
	"text/xml":         true,
	"text/plain":       true,
}

func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := newUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("WebSocket upgrade failed",
			"error", err.Error(),
			"remote_addr", r.RemoteAddr,
		)
		return
	}

	client := &Client{
		server: s,
		conn:   conn,
		send:   make(chan interface{}, MaxClientMessageQueueSize),
		id:     fmt.Sprintf("%s_%d", r.RemoteAddr, time.Now().UnixNano()),
	}

	// Send version info BEFORE starting writePump (avoid concurrent writes)
	if err := conn.WriteJSON(versionMessage()); err != nil {
		s.logger.Debugw("Failed to send version info",
			"client_id", client.id,
			"error", err,
		)
	}

	s.register <- client

	// Start goroutines for reading and writing
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
}

// HandleUpload ingests a multipart form upload through the pipeline. The
// response carries the intake result; success=false means the content
// matched no known format.
func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload too large (limit %d MB)", s.maxUploadBytes>>20))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field in multipart form")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExtensions[ext] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file extension %q", ext))
		return
	}

	// Sniff the actual content rather than trusting the client's header
	head := make([]byte, 512)
	n, _ := file.Read(head)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeWrappedError(w, s.logger, err, "failed to rewind upload", http.StatusInternalServerError)
		return
	}
	contentType := http.DetectContentType(head[:n])
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !allowedUploadContentTypes[contentType] {
		s.logger.Warnw("Rejected upload",
			logger.FieldFilename, header.Filename,
			"content_type", contentType,
		)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported content type %q", contentType))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeWrappedError(w, s.logger, err, "failed to read upload", http.StatusBadRequest)
		return
	}

	result, err := s.orchestrator.LoadFile(r.Context(), header.Filename, data)
	if err != nil {
		writeWrappedError(w, s.logger, err,
			fmt.Sprintf("ingestion failed for %s", header.Filename), http.StatusBadRequest)
		return
	}

	s.logger.Infow("File uploaded",
		logger.FieldFilename, header.Filename,
		logger.FieldSize, len(data),
		"success", result.Success,
		"evaluations", len(result.EvaluationIDs),
	)
	if err := writeJSON(w, http.StatusOK, result); err != nil {
		s.logger.Errorw("Failed to write upload response", "error", err.Error())
	}
}

// HandleEvaluations lists the loaded evaluations with their selection flags.
func (s *Server) HandleEvaluations(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	entries := s.evaluationEntries()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"evaluations": entries,
		"count":       len(entries),
	})
}

// HandleEvaluation routes requests under /api/evaluations/{id}:
//
//	GET    /api/evaluations/{id}          - full evaluation detail
//	DELETE /api/evaluations/{id}          - remove the evaluation
//	POST   /api/evaluations/{id}/select   - mark selected
//	POST   /api/evaluations/{id}/deselect - clear selection
func (s *Server) HandleEvaluation(w http.ResponseWriter, r *http.Request) {
	parts := extractPathParts(r.URL.Path, "/api/evaluations/")
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, "evaluation ID required")
		return
	}
	id := parts[0]

	if len(parts) == 2 {
		switch parts[1] {
		case "select":
			s.handleSelectEvaluation(w, r, id, true)
		case "deselect":
			s.handleSelectEvaluation(w, r, id, false)
		default:
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown evaluation operation %q", parts[1]))
		}
		return
	}
	if len(parts) > 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetEvaluation(w, r, id)
	case http.MethodDelete:
		s.handleRemoveEvaluation(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request, id string) {
	eval, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no such evaluation: "+id)
		return
	}

	detail := map[string]interface{}{
		"id":        eval.ID(),
		"filename":  eval.Filename(),
		"kind":      string(eval.Kind()),
		"loaded_at": eval.LoadedAt(),
		"selected":  s.selection.IsSelected(id),
	}
	if format := eval.Format(); format != "" {
		detail["format"] = format
	}
	switch eval.Kind() {
	case hdf.KindExecution:
		detail["data"] = eval.Execution()
	case hdf.KindProfile:
		detail["data"] = eval.Profile()
	}

	if err := writeJSON(w, http.StatusOK, detail); err != nil {
		s.logger.Errorw("Failed to write evaluation detail",
			logger.FieldEvaluationID, shortID(id),
			"error", err.Error(),
		)
	}
}

func (s *Server) handleRemoveEvaluation(w http.ResponseWriter, r *http.Request, id string) {
	if !s.store.Remove(id) {
		writeError(w, http.StatusNotFound, "no such evaluation: "+id)
		return
	}

	// Removal implies deselection; a selected ID must never dangle
	s.selection.Deselect(id)
	s.broadcastSelectionUpdate()

	s.logger.Infow("Evaluation removed", logger.FieldEvaluationID, shortID(id))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"removed": true,
	})
}

func (s *Server) handleSelectEvaluation(w http.ResponseWriter, r *http.Request, id string, selected bool) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if _, ok := s.store.Get(id); !ok {
		writeError(w, http.StatusNotFound, "no such evaluation: "+id)
		return
	}

	var changed bool
	if selected {
		changed = s.selection.Select(id)
	} else {
		changed = s.selection.Deselect(id)
	}
	s.broadcastSelectionUpdate()

	s.logger.Infow("Selection changed",
		logger.FieldEvaluationID, shortID(id),
		"selected", selected,
		"changed", changed,
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"selected": selected,
		"changed":  changed,
	})
}

// HandleConverters lists the registered converters with their fingerprint
// and heuristic capabilities.
func (s *Server) HandleConverters(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	converters := s.registry.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"converters": converters,
		"count":      len(converters),
	})
}

// HandleConfig serves the runtime configuration. GET returns the
// presentation-safe values; POST and PATCH update the settings that can
// change while the server runs (currently log verbosity).
func (s *Server) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost, http.MethodPatch) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetConfig(w, r)
	case http.MethodPost, http.MethodPatch:
		s.handleUpdateConfig(w, r)
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config_file": config.GetViper().ConfigFileUsed(),
		"server": map[string]interface{}{
			"addr":            s.cfg.Addr(),
			"allowed_origins": s.cfg.GetServerAllowedOrigins(),
			"max_clients":     s.maxClients,
			"max_upload_mb":   s.maxUploadBytes >> 20,
		},
		"intake": map[string]interface{}{
			"watch_dirs":           s.cfg.Intake.WatchDirs,
			"watch_extensions":     s.cfg.Intake.WatchExtensions,
			"max_fires_per_minute": s.cfg.Intake.MaxFiresPerMinute,
		},
		"log": map[string]interface{}{
			"json":      s.cfg.Log.JSON,
			"verbosity": int(s.verbosity.Load()),
		},
	})
}

// handleUpdateConfig applies runtime-adjustable settings. Everything not
// listed in the request shape requires a restart to change.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Log struct {
			Verbosity *int `json:"verbosity"`
		} `json:"log"`
	}
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	if req.Log.Verbosity != nil {
		v := *req.Log.Verbosity
		if v < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid verbosity %d", v))
			return
		}
		old := int(s.verbosity.Load())
		s.verbosity.Store(int32(v))
		s.logger.Infow("Verbosity level changed",
			"old_verbosity", old,
			"new_verbosity", v,
			"level_name", logger.LevelName(v),
			"client", r.RemoteAddr,
		)
	}

	s.handleGetConfig(w, r)
}

// HandleVersion serves build information.
func (s *Server) HandleVersion(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, version.Get())
}

// HandleHealth serves the health check endpoint with version info, pipeline
// counters, and system stats. Memory and load sections are omitted on
// platforms where they cannot be read.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()
	s.mu.RLock()
	clientCount := len(s.clients)
	s.mu.RUnlock()

	health := map[string]interface{}{
		"status":         "ok",
		"state":          stateString(s.getState()),
		"version":        versionInfo.Version,
		"commit":         versionInfo.CommitHash,
		"build_time":     versionInfo.BuildTime,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"clients":        clientCount,
		"evaluations":    s.store.Len(),
		"selected":       s.selection.Len(),
		"converters":     s.registry.Len(),
		"verbosity":      int(s.verbosity.Load()),
	}
	if mem := memoryStats(); mem != nil {
		health["memory"] = mem
	}
	if load := loadStats(); load != nil {
		health["load"] = load
	}

	writeJSON(w, http.StatusOK, health)
}
