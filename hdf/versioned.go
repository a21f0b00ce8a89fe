package hdf

import (
	"encoding/json"

	"github.com/nulltoken/heimdall2/errors"
)

// Kind names the top-level document shape ParseVersioned recognized.
type Kind string

const (
	KindExecution Kind = "execution"
	KindProfile   Kind = "profile"
)

// SchemaVersion identifies which revision of the normalized schema a
// document follows.
type SchemaVersion string

const (
	SchemaExecV1     SchemaVersion = "exec-json-1.0"    // execution with a declared tool version
	SchemaExecLegacy SchemaVersion = "exec-json-legacy" // pre-1.0 exports omit the version field
	SchemaProfileV1  SchemaVersion = "profile-json-1.0" // standalone profile definition
)

// Document is the result of version-aware parsing: exactly one of
// Execution or Profile is set, matching Kind.
type Document struct {
	Kind      Kind
	Version   SchemaVersion
	Execution *Execution
	Profile   *Profile
}

// schemaCandidate pairs a shape test with the decoder for that revision.
// Candidates are tried in order; the first whose shape matches decodes the
// document. New schema revisions are added here and nowhere else.
type schemaCandidate struct {
	version SchemaVersion
	matches func(raw map[string]json.RawMessage) bool
	decode  func(text string, version SchemaVersion) (*Document, error)
}

var schemaCandidates = []schemaCandidate{
	{
		version: SchemaExecV1,
		matches: func(raw map[string]json.RawMessage) bool {
			return hasArrayKey(raw, "profiles") && hasKey(raw, "version")
		},
		decode: decodeExecution,
	},
	{
		version: SchemaExecLegacy,
		matches: func(raw map[string]json.RawMessage) bool {
			return hasArrayKey(raw, "profiles")
		},
		decode: decodeExecution,
	},
	{
		version: SchemaProfileV1,
		matches: func(raw map[string]json.RawMessage) bool {
			return hasKey(raw, "controls") && hasKey(raw, "sha256")
		},
		decode: decodeProfile,
	},
}

// ParseVersioned inspects normalized text, determines which schema revision
// it follows, and decodes it into a Document. Text matching no known shape
// is an error the caller must surface; unlike format guessing there is no
// fallback here.
func ParseVersioned(text string) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrUnrecognizedShape, "text is not a JSON object"),
			"re-run with -vv for intake diagnostics",
		)
	}
	for _, candidate := range schemaCandidates {
		if candidate.matches(raw) {
			return candidate.decode(text, candidate.version)
		}
	}
	return nil, errors.WithHint(
		errors.Wrap(errors.ErrUnrecognizedShape, "document matches no known schema revision"),
		"re-run with -vv for intake diagnostics, or report the first lines of the file",
	)
}

func decodeExecution(text string, version SchemaVersion) (*Document, error) {
	var exec Execution
	if err := json.Unmarshal([]byte(text), &exec); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "execution shape recognized but decode failed: %v", err)
	}
	return &Document{Kind: KindExecution, Version: version, Execution: &exec}, nil
}

func decodeProfile(text string, version SchemaVersion) (*Document, error) {
	var profile Profile
	if err := json.Unmarshal([]byte(text), &profile); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "profile shape recognized but decode failed: %v", err)
	}
	return &Document{Kind: KindProfile, Version: version, Profile: &profile}, nil
}

func hasKey(raw map[string]json.RawMessage, key string) bool {
	_, ok := raw[key]
	return ok
}

// hasArrayKey reports whether the key exists and its value is a JSON array.
func hasArrayKey(raw map[string]json.RawMessage, key string) bool {
	val, ok := raw[key]
	if !ok {
		return false
	}
	for _, b := range val {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
