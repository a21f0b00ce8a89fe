// Package testing provides shared report fixtures for Heimdall tests.
package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteReport writes report content into a fresh temp directory and
// returns the file path. Cleanup rides on t.TempDir().
func WriteReport(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write report fixture %s: %v", name, err)
	}
	return path
}

// MinimalExecution returns normalized execution JSON with a single
// passing control, for tests that need valid ingestible content.
func MinimalExecution(profileName string) string {
	return fmt.Sprintf(`{
  "platform": {"name": "ubuntu", "release": "22.04"},
  "version": "5.22.3",
  "statistics": {"duration": 0.42},
  "profiles": [
    {
      "name": %q,
      "sha256": "deadbeefcafe",
      "controls": [
        {
          "id": "ctl-01",
          "results": [
            {"status": "passed", "code_desc": "expected it to pass", "start_time": "2026-08-23T10:00:00Z"}
          ]
        }
      ],
      "supports": [],
      "attributes": [],
      "groups": []
    }
  ]
}`, profileName)
}
