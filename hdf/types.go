package hdf

// Execution is a complete scan run: the platform it ran against, run
// statistics, and the profiles that were evaluated. It is the unit the
// evaluation store manages and the unit converters produce.
type Execution struct {
	Platform    Platform               `json:"platform"`              // target platform metadata
	Version     string                 `json:"version"`               // producing tool version
	Statistics  Statistics             `json:"statistics"`            // run-level statistics
	Profiles    []Profile              `json:"profiles"`              // evaluated profiles, at least one
	Passthrough map[string]interface{} `json:"passthrough,omitempty"` // source data preserved verbatim by converters

	// SourceID is the evaluation store key assigned at registration.
	// It is a back-link only and never serialized with the document.
	SourceID string `json:"-"`
}

// Platform identifies what an execution ran against.
type Platform struct {
	Name     string `json:"name"`                // platform or scanner family name
	Release  string `json:"release"`             // platform release or tool version
	TargetID string `json:"target_id,omitempty"` // scanned target identifier, when known
}

// Statistics carries run-level numbers for an execution.
type Statistics struct {
	Duration float64 `json:"duration"` // total run time in seconds
}

// Profile is one benchmark within an execution, or a standalone benchmark
// definition when parsed on its own.
type Profile struct {
	Name           string                   `json:"name"`                      // machine name, unique within an execution
	Version        string                   `json:"version,omitempty"`         // benchmark version
	Sha256         string                   `json:"sha256"`                    // content digest of the profile definition
	Title          string                   `json:"title,omitempty"`           // human-readable title
	Maintainer     string                   `json:"maintainer,omitempty"`      // maintainer contact
	Summary        string                   `json:"summary,omitempty"`         // one-line description
	License        string                   `json:"license,omitempty"`         // license identifier
	Copyright      string                   `json:"copyright,omitempty"`       // copyright holder
	CopyrightEmail string                   `json:"copyright_email,omitempty"` // copyright contact
	Supports       []map[string]string      `json:"supports"`                  // platform support matrix
	Attributes     []map[string]interface{} `json:"attributes"`                // input attributes the profile was run with
	Depends        []Dependency             `json:"depends,omitempty"`         // profile dependencies
	Groups         []ControlGroup           `json:"groups"`                    // control groupings by source file
	Controls       []Control                `json:"controls"`                  // the checks themselves
	Status         string                   `json:"status,omitempty"`          // loaded, skipped, or failed
	SkipMessage    string                   `json:"skip_message,omitempty"`    // why the profile was skipped
	ParentProfile  string                   `json:"parent_profile,omitempty"`  // name of the overlaying profile
}

// Dependency is a profile's declared dependency on another profile.
type Dependency struct {
	Name   string `json:"name,omitempty"`
	URL    string `json:"url,omitempty"`
	Path   string `json:"path,omitempty"`
	Status string `json:"status,omitempty"`
}

// ControlGroup maps a source file to the control IDs it defines.
type ControlGroup struct {
	ID       string   `json:"id"`              // group identifier, typically a file path
	Title    *string  `json:"title,omitempty"` // optional display title, null in many exports
	Controls []string `json:"controls"`        // control IDs in this group
}

// Control is a single check within a profile.
type Control struct {
	ID             string                 `json:"id"`                     // control identifier, unique within the profile
	Title          string                 `json:"title,omitempty"`        // human-readable title
	Desc           string                 `json:"desc,omitempty"`         // primary description
	Descriptions   []Description          `json:"descriptions,omitempty"` // labeled descriptions (check, fix, rationale)
	Impact         float64                `json:"impact"`                 // severity weight in [0.0, 1.0]
	Refs           []Reference            `json:"refs"`                   // external references
	Tags           map[string]interface{} `json:"tags"`                   // arbitrary tags (nist, cci, severity)
	Code           string                 `json:"code,omitempty"`         // source of the check, when available
	SourceLocation SourceLocation         `json:"source_location"`        // where the check is defined
	Results        []ControlResult        `json:"results"`                // outcomes, empty for standalone profiles
}

// Description is a labeled description attached to a control.
type Description struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Reference points at external guidance for a control.
type Reference struct {
	Ref string `json:"ref,omitempty"`
	URL string `json:"url,omitempty"`
}

// SourceLocation records where a control is defined.
type SourceLocation struct {
	Ref  string `json:"ref,omitempty"`  // file path
	Line int    `json:"line,omitempty"` // line number within the file
}

// ControlResult is one outcome of running a control against a target.
type ControlResult struct {
	Status      string   `json:"status"`                 // passed, failed, skipped, or error
	CodeDesc    string   `json:"code_desc"`              // description of the evaluated expectation
	RunTime     float64  `json:"run_time,omitempty"`     // seconds spent on this result
	StartTime   string   `json:"start_time"`             // when evaluation started
	Message     string   `json:"message,omitempty"`      // failure detail
	SkipMessage string   `json:"skip_message,omitempty"` // why the result was skipped
	Exception   string   `json:"exception,omitempty"`    // exception class on error
	Backtrace   []string `json:"backtrace,omitempty"`    // stack trace on error
}

// ControlCount returns the total number of controls across all profiles.
func (e *Execution) ControlCount() int {
	n := 0
	for i := range e.Profiles {
		n += len(e.Profiles[i].Controls)
	}
	return n
}

// ResultCounts tallies control results by status across the execution.
// Controls without results are counted under "no_result".
func (e *Execution) ResultCounts() map[string]int {
	counts := make(map[string]int)
	for i := range e.Profiles {
		for j := range e.Profiles[i].Controls {
			ctrl := &e.Profiles[i].Controls[j]
			if len(ctrl.Results) == 0 {
				counts["no_result"]++
				continue
			}
			for k := range ctrl.Results {
				counts[ctrl.Results[k].Status]++
			}
		}
	}
	return counts
}

// ProfileNames returns the profile names in document order.
func (e *Execution) ProfileNames() []string {
	names := make([]string, len(e.Profiles))
	for i := range e.Profiles {
		names[i] = e.Profiles[i].Name
	}
	return names
}

// DisplayTitle returns the profile's title, falling back to its name.
func (p *Profile) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}
