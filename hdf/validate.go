package hdf

import "encoding/json"

// IsHDF reports whether text already carries normalized data and can skip
// conversion entirely. Recognition is structural: a top-level object whose
// "profiles" key holds an array is an execution, and one carrying both
// "controls" and "sha256" is a standalone profile. Anything else, including
// text that does not parse as JSON, is not normalized data. The check never
// fails; malformed input simply reports false.
func IsHDF(text string) bool {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return false
	}
	if _, ok := parsed["profiles"].([]interface{}); ok {
		return true
	}
	_, hasControls := parsed["controls"]
	_, hasDigest := parsed["sha256"]
	return hasControls && hasDigest
}
