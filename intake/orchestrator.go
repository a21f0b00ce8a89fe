// Package intake drives ingestion end to end: deciding whether uploaded
// text is already normalized, converting it when it is not, and registering
// every resulting document under a freshly minted identifier.
package intake

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nulltoken/heimdall2/convert"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/hdf"
	"github.com/nulltoken/heimdall2/logger"
	"github.com/nulltoken/heimdall2/notify"
	"github.com/nulltoken/heimdall2/store"
)

// Orchestrator sequences validation, conversion, and registration. The
// stores, dispatcher, and notifier are injected; nothing here reaches for
// ambient globals, so independent pipelines can coexist in one process.
type Orchestrator struct {
	store      *store.Store
	selection  *store.Selection
	dispatcher *convert.Dispatcher
	notifier   notify.Notifier
}

// NewOrchestrator wires an orchestrator. A nil notifier discards events.
func NewOrchestrator(st *store.Store, sel *store.Selection, dispatcher *convert.Dispatcher, notifier notify.Notifier) *Orchestrator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Orchestrator{
		store:      st,
		selection:  sel,
		dispatcher: dispatcher,
		notifier:   notifier,
	}
}

// FileResult reports one file's trip through the pipeline.
type FileResult struct {
	Filename      string    `json:"filename"`
	Format        string    `json:"format,omitempty"` // detected source format, empty when pre-normalized
	Converted     bool      `json:"converted"`        // false when the upload was already normalized
	EvaluationIDs []string  `json:"evaluation_ids"`
	Success       bool      `json:"success"`
	Message       string    `json:"message,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// LoadFile ingests raw upload content. Already-normalized text goes
// straight to text ingestion; everything else runs through the dispatcher,
// and each execution the converter produces is registered independently.
// A dispatch that matches no format yields an empty ID list and no error;
// the notifier has already carried the failure to the user.
func (o *Orchestrator) LoadFile(ctx context.Context, filename string, data []byte) (*FileResult, error) {
	start := time.Now()
	text := string(data)
	result := &FileResult{Filename: filename, StartTime: start}

	logger.Debugw("loading file",
		logger.FieldFile, filename,
		logger.FieldSize, len(data),
	)

	if hdf.IsHDF(text) {
		id, err := o.IngestText(ctx, filename, text)
		result.EndTime = time.Now()
		if err != nil {
			result.Message = err.Error()
			return result, err
		}
		result.EvaluationIDs = []string{id}
		result.Success = true
		o.logLoaded(result, start)
		return result, nil
	}

	// Detection runs ahead of dispatch so the registered evaluations can
	// carry the source format in their metadata.
	detection := o.dispatcher.Detect(filename, text)
	if detection.Phase != convert.PhaseNone {
		result.Format = string(detection.Format)
	}

	execs, err := o.dispatcher.Dispatch(ctx, filename, text)
	if err != nil {
		result.EndTime = time.Now()
		result.Message = err.Error()
		return result, err
	}
	if len(execs) == 0 {
		result.EndTime = time.Now()
		result.Message = "no fingerprints matched"
		return result, nil
	}

	result.Converted = true
	for _, exec := range execs {
		id, err := o.register(filename, result.Format, &hdf.Document{
			Kind:      hdf.KindExecution,
			Execution: exec,
		})
		if err != nil {
			result.EndTime = time.Now()
			result.Message = err.Error()
			return result, err
		}
		result.EvaluationIDs = append(result.EvaluationIDs, id)
	}

	result.EndTime = time.Now()
	result.Success = true
	o.logLoaded(result, start)
	return result, nil
}

// LoadPath reads a file from disk and ingests it.
func (o *Orchestrator) LoadPath(ctx context.Context, path string) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return o.LoadFile(ctx, filepath.Base(path), data)
}

// IngestText registers already-normalized text. The text is re-parsed
// through the version-aware parser; text matching neither the execution nor
// the profile shape fails the whole load.
func (o *Orchestrator) IngestText(ctx context.Context, filename, text string) (string, error) {
	doc, err := hdf.ParseVersioned(text)
	if err != nil {
		return "", err
	}
	logger.Debugw("normalized text parsed",
		logger.FieldFile, filename,
		"kind", string(doc.Kind),
		"schema", string(doc.Version),
	)
	return o.register(filename, "", doc)
}

// IngestExecution registers an execution the caller already holds,
// skipping the re-parse.
func (o *Orchestrator) IngestExecution(ctx context.Context, filename string, exec *hdf.Execution) (string, error) {
	if exec == nil {
		return "", errors.Wrap(errors.ErrInvalidInput, "nil execution")
	}
	return o.register(filename, "", &hdf.Document{Kind: hdf.KindExecution, Execution: exec})
}

// register mints an identifier, wraps and freezes the document, registers
// it, and marks it selected. Identifiers are random per call: ingesting
// identical bytes twice produces two independent evaluations.
func (o *Orchestrator) register(filename, format string, doc *hdf.Document) (string, error) {
	id := uuid.New().String()

	eval := store.NewEvaluation(id, filename, format, doc)
	if err := o.store.Add(eval); err != nil {
		return "", err
	}
	o.selection.Select(id)

	summary := eval.Summarize()
	logger.Infow("evaluation registered",
		logger.FieldEvaluationID, id,
		logger.FieldFile, filename,
		logger.FieldProfiles, summary.Profiles,
		logger.FieldControls, summary.Controls,
	)
	o.notifier.Ingested(notify.Ingestion{
		EvaluationID: id,
		Filename:     filename,
		Kind:         summary.Kind,
		Format:       format,
		Profiles:     summary.Profiles,
		Controls:     summary.Controls,
	})
	return id, nil
}

func (o *Orchestrator) logLoaded(result *FileResult, start time.Time) {
	logger.Infow("file ingestion completed",
		logger.FieldFile, result.Filename,
		logger.FieldCount, len(result.EvaluationIDs),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
}
