package convert

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nulltoken/heimdall2/detect"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/hdf"
	"github.com/nulltoken/heimdall2/logger"
	"github.com/nulltoken/heimdall2/notify"
)

// NoMatchMessage is the user-visible failure reported when neither
// fingerprints nor heuristics can route an upload.
const NoMatchMessage = "Invalid file uploaded, no fingerprints matched."

// heuristicRoute pairs a format with the filename/text test that selects
// it when a report does not parse as JSON.
type heuristicRoute struct {
	format  detect.Format
	matches func(filename, text string) bool
}

// heuristicRoutes is the fallback routing table for non-JSON reports.
// Routes are tried in this order and the first match wins, so priority is
// the list order, not specificity.
var heuristicRoutes = []heuristicRoute{
	{detect.FormatNessus, func(filename, _ string) bool {
		return strings.HasSuffix(strings.ToLower(filename), ".nessus")
	}},
	{detect.FormatXCCDF, func(filename, text string) bool {
		return strings.Contains(text, "http://checklists.nist.gov/xccdf") ||
			strings.Contains(strings.ToLower(filename), "xccdf")
	}},
	{detect.FormatBurp, func(_, text string) bool {
		return strings.Contains(text, "issues burpVersion")
	}},
	{detect.FormatScoutSuite, func(_, text string) bool {
		return strings.Contains(text, "scoutsuite_results")
	}},
	{detect.FormatDBProtect, func(_, text string) bool {
		return strings.Contains(text, "Policy") &&
			strings.Contains(text, "Job Name") &&
			strings.Contains(text, "Check ID") &&
			strings.Contains(text, "Result Status")
	}},
	{detect.FormatNetsparker, func(_, text string) bool {
		// A marker at offset zero is treated as no match. Known quirk,
		// preserved until the intended semantics are confirmed.
		return strings.Index(text, "netsparker-enterprise") > 0
	}},
}

// Dispatcher picks a converter for raw report text and runs it.
type Dispatcher struct {
	registry *Registry
	notifier notify.Notifier
}

// NewDispatcher wires a dispatcher to a registry and a notifier. A nil
// notifier discards failure notifications.
func NewDispatcher(registry *Registry, notifier notify.Notifier) *Dispatcher {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Dispatcher{registry: registry, notifier: notifier}
}

// Dispatch converts raw report text into normalized executions. Detection
// is two-phase: text that parses as JSON is routed by fingerprint guessing
// and always commits to the guessed format, while unparsable text falls
// through to filename and marker heuristics. When no heuristic matches
// either, the failure is reported once through the notifier and an empty
// result is returned without error.
func (d *Dispatcher) Dispatch(ctx context.Context, filename, text string) ([]*hdf.Execution, error) {
	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return d.dispatchHeuristic(ctx, filename, text)
	}

	// Non-object JSON still commits to phase one: the guesser scores it
	// like any other document and settles on its first table entry.
	doc, _ := parsed.(map[string]interface{})
	format := detect.Guess(doc)
	logger.Debugw("guessed format from fingerprints",
		logger.FieldFile, filename,
		logger.FieldFormat, string(format),
	)
	return d.convert(ctx, format, text)
}

func (d *Dispatcher) dispatchHeuristic(ctx context.Context, filename, text string) ([]*hdf.Execution, error) {
	for _, route := range heuristicRoutes {
		if route.matches(filename, text) {
			logger.Debugw("heuristic route matched",
				logger.FieldFile, filename,
				logger.FieldFormat, string(route.format),
			)
			return d.convert(ctx, route.format, text)
		}
	}

	logger.Warnw("no fingerprints matched", logger.FieldFile, filename)
	d.notifier.Failure(NoMatchMessage)
	return nil, nil
}

func (d *Dispatcher) convert(ctx context.Context, format detect.Format, text string) ([]*hdf.Execution, error) {
	conv, ok := d.registry.Get(string(format))
	if !ok {
		return nil, errors.Wrapf(errors.ErrConverterNotFound, "%s", format)
	}
	// Converter failures propagate unchanged.
	return conv.Convert(ctx, text)
}

// Detection phases reported by Detect.
const (
	PhaseFingerprint = "fingerprint"
	PhaseHeuristic   = "heuristic"
	PhaseNone        = "none"
)

// Detection describes how report text would be routed, without running a
// converter. The detect command uses this for dry-run diagnostics.
type Detection struct {
	Format     detect.Format  `json:"format,omitempty"`
	Phase      string         `json:"phase"`
	Registered bool           `json:"registered"`       // a converter is available for Format
	Scores     []detect.Score `json:"scores,omitempty"` // fingerprint phase only
}

// Detect performs routing only and reports which phase settled it.
func (d *Dispatcher) Detect(filename, text string) Detection {
	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		doc, _ := parsed.(map[string]interface{})
		format := detect.Guess(doc)
		_, registered := d.registry.Get(string(format))
		return Detection{
			Format:     format,
			Phase:      PhaseFingerprint,
			Registered: registered,
			Scores:     detect.Scores(doc),
		}
	}

	for _, route := range heuristicRoutes {
		if route.matches(filename, text) {
			_, registered := d.registry.Get(string(route.format))
			return Detection{Format: route.format, Phase: PhaseHeuristic, Registered: registered}
		}
	}
	return Detection{Phase: PhaseNone}
}
