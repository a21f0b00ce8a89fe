package commands

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/display"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/hdf"
)

// ValidateCmd represents the validate command
var ValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check whether files are already normalized",
	Long: `Check whether files carry normalized data.

A file passes when its content is recognized as a normalized execution
or standalone profile; scanner exports that still need conversion fail.
The exit code is non-zero when any file fails, so the command slots into
CI pipelines as a gate.

Examples:
  heimdall validate normalized/scan.json       # Single file
  heimdall validate normalized/*.json          # Gate a whole directory
  heimdall validate scan.json --json           # Machine-readable verdicts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	ValidateCmd.Flags().Bool("json", false, "Output verdicts in JSON format")
}

// validateVerdict is one file's validation outcome.
type validateVerdict struct {
	Filename string `json:"filename"`
	Valid    bool   `json:"valid"`
	Kind     string `json:"kind,omitempty"`
	Schema   string `json:"schema,omitempty"`
	Error    string `json:"error,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)

	verdicts := make([]validateVerdict, 0, len(args))
	failures := 0

	for _, arg := range args {
		verdict := validateOne(arg)
		verdicts = append(verdicts, verdict)

		if !verdict.Valid {
			failures++
			if !useJSON {
				pterm.Error.Printf("%s: %s\n", verdict.Filename, verdict.Error)
			}
			continue
		}

		if !useJSON {
			pterm.Success.Printf("%s: normalized %s (%s)\n", verdict.Filename, verdict.Kind, verdict.Schema)
		}
	}

	if useJSON {
		if err := display.OutputJSON(verdicts); err != nil {
			return err
		}
	}

	if failures > 0 {
		return errors.Newf("%d of %d files are not normalized", failures, len(args))
	}
	return nil
}

func validateOne(arg string) validateVerdict {
	verdict := validateVerdict{Filename: filepath.Base(arg)}

	data, err := os.ReadFile(arg)
	if err != nil {
		verdict.Error = err.Error()
		return verdict
	}
	text := string(data)

	if !hdf.IsHDF(text) {
		verdict.Error = "content is not normalized data"
		return verdict
	}

	// The structural check passed; the full parse pins down which schema
	// revision the file follows and catches shape-level decode failures.
	doc, err := hdf.ParseVersioned(text)
	if err != nil {
		verdict.Error = err.Error()
		return verdict
	}

	verdict.Valid = true
	verdict.Kind = string(doc.Kind)
	verdict.Schema = string(doc.Version)
	return verdict
}
