// Package display provides output formatting helpers shared by the
// Heimdall CLI commands.
package display

import (
	"encoding/json"
)

// MarshalJSON marshals v with the two-space indentation used for all
// CLI JSON output, so results stay diffable and golden-file friendly.
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
