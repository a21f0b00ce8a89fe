// Package store holds the process-wide registration and selection state for
// ingested evaluations. Registered content is frozen: the wrapper deep-copies
// on the way in and accessors deep-copy on the way out, so nothing a caller
// holds can mutate stored state.
package store

import (
	"time"

	"github.com/nulltoken/heimdall2/hdf"
)

// Evaluation wraps one registered normalized document with its identity and
// intake metadata. Exactly one of the execution or profile content is set,
// matching Kind. All fields are fixed at construction.
type Evaluation struct {
	id        string
	filename  string
	format    string // detected source format, empty when the upload was pre-normalized
	kind      hdf.Kind
	loadedAt  time.Time
	execution *hdf.Execution
	profile   *hdf.Profile
}

// NewEvaluation wraps a parsed document under the given identifier. The
// content is deep-copied immediately, and execution content is back-linked
// to the wrapper through its store key, so the document can name the
// evaluation that contains it without an owning cycle.
func NewEvaluation(id, filename, format string, doc *hdf.Document) *Evaluation {
	eval := &Evaluation{
		id:       id,
		filename: filename,
		format:   format,
		kind:     doc.Kind,
		loadedAt: time.Now(),
	}
	switch doc.Kind {
	case hdf.KindExecution:
		eval.execution = doc.Execution.Clone()
		eval.execution.SourceID = id
	case hdf.KindProfile:
		eval.profile = doc.Profile.Clone()
	}
	return eval
}

// ID returns the evaluation's unique identifier.
func (e *Evaluation) ID() string { return e.id }

// Filename returns the originating filename.
func (e *Evaluation) Filename() string { return e.filename }

// Format returns the detected source format, or empty when the upload was
// already normalized.
func (e *Evaluation) Format() string { return e.format }

// Kind reports whether the evaluation holds an execution or a profile.
func (e *Evaluation) Kind() hdf.Kind { return e.kind }

// LoadedAt returns when the evaluation was created.
func (e *Evaluation) LoadedAt() time.Time { return e.loadedAt }

// Execution returns a deep copy of the execution content, or nil for
// profile evaluations. Mutating the copy never reaches stored state.
func (e *Evaluation) Execution() *hdf.Execution {
	return e.execution.Clone()
}

// Profile returns a deep copy of the profile content, or nil for execution
// evaluations.
func (e *Evaluation) Profile() *hdf.Profile {
	return e.profile.Clone()
}

// Summary is the listing row for an evaluation.
type Summary struct {
	ID       string         `json:"id"`
	Filename string         `json:"filename"`
	Kind     string         `json:"kind"`
	Format   string         `json:"format,omitempty"`
	LoadedAt time.Time      `json:"loaded_at"`
	Profiles int            `json:"profiles"`
	Controls int            `json:"controls"`
	Results  map[string]int `json:"results,omitempty"`
}

// Summarize builds the listing row without copying document content.
func (e *Evaluation) Summarize() Summary {
	s := Summary{
		ID:       e.id,
		Filename: e.filename,
		Kind:     string(e.kind),
		Format:   e.format,
		LoadedAt: e.loadedAt,
	}
	switch {
	case e.execution != nil:
		s.Profiles = len(e.execution.Profiles)
		s.Controls = e.execution.ControlCount()
		s.Results = e.execution.ResultCounts()
	case e.profile != nil:
		s.Profiles = 1
		s.Controls = len(e.profile.Controls)
	}
	return s
}
