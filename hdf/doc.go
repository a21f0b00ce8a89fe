// Package hdf defines the normalized security-report schema that every
// supported scanner format is converted into.
//
// # Overview
//
// Two top-level document kinds exist:
//
//   - Execution: a full scan run, carrying platform metadata, run statistics,
//     and one or more evaluated profiles with per-control results
//   - Profile: a standalone benchmark definition, controls without results
//
// The package provides the document types themselves, deep-copy support for
// the immutable evaluation store, the IsHDF validator used by intake to
// decide whether text is already normalized, and the version-aware
// ParseVersioned entry point that recognizes which schema revision a piece
// of normalized text follows.
//
// # Schema recognition
//
// Recognition is shape-based, not declared: an object whose "profiles" key
// holds an array is an execution, an object carrying both "controls" and
// "sha256" is a standalone profile. ParseVersioned walks an ordered
// candidate list so new schema revisions slot in without touching callers.
package hdf
