package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/convert"
	"github.com/nulltoken/heimdall2/display"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/hdf"
	"github.com/nulltoken/heimdall2/notify"
)

// DetectCmd represents the detect command
var DetectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Report how a file would be routed, without ingesting",
	Long: `Run format detection on a report without ingesting it.

Detection is two-phase: content that parses as JSON is scored against
the format fingerprint table, and everything else falls through to
filename and content-marker heuristics. Already-normalized files skip
detection entirely.

Examples:
  heimdall detect scan.nessus        # Which format, which phase
  heimdall detect scan.json -v       # Include per-format fingerprint scores
  heimdall detect scan.json --json   # Machine-readable detection report`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	DetectCmd.Flags().Bool("json", false, "Output the detection report in JSON format")
}

// detectReport is the detect command's output document.
type detectReport struct {
	Filename   string             `json:"filename"`
	Normalized bool               `json:"normalized"`
	Detection  *convert.Detection `json:"detection,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)
	verbosity, _ := cmd.Flags().GetCount("verbose")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "reading %s", args[0])
	}
	filename := filepath.Base(args[0])
	text := string(data)

	report := detectReport{Filename: filename}

	if hdf.IsHDF(text) {
		report.Normalized = true
		if useJSON {
			return display.OutputJSON(report)
		}
		pterm.Success.Printf("%s is already normalized; load registers it without conversion\n", filename)
		return nil
	}

	dispatcher := convert.NewDispatcher(activeRegistry(), notify.Nop{})
	detection := dispatcher.Detect(filename, text)
	report.Detection = &detection

	if useJSON {
		return display.OutputJSON(report)
	}

	switch detection.Phase {
	case convert.PhaseNone:
		pterm.Warning.Printf("%s matches no known format\n", filename)
		return errors.New(convert.NoMatchMessage)
	case convert.PhaseFingerprint:
		pterm.Info.Printf("%s: %s (fingerprint match)\n", filename, detection.Format)
	default:
		pterm.Info.Printf("%s: %s (heuristic match)\n", filename, detection.Format)
	}

	if detection.Registered {
		fmt.Println("  converter: registered")
	} else {
		fmt.Println("  converter: not registered in this process")
	}

	if verbosity > 0 && len(detection.Scores) > 0 {
		fmt.Println()
		fmt.Printf("%-15s %s\n", "FORMAT", "MATCHED PATHS")
		fmt.Printf("%-15s %s\n", "------", "-------------")
		for _, score := range detection.Scores {
			fmt.Printf("%-15s %d/%d\n", score.Format, score.Matched, score.Total)
		}
	}

	return nil
}
