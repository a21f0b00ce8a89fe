package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/convert"
	"github.com/nulltoken/heimdall2/detect"
	"github.com/nulltoken/heimdall2/display"
)

// ConvertersCmd represents the converters command
var ConvertersCmd = &cobra.Command{
	Use:   "converters",
	Short: "List known formats and registered converters",
	Long: `List the formats Heimdall can detect and the converters available
to handle them.

Detection knowledge is built in: fingerprinted formats are scored from
JSON key paths, heuristic formats are recognized from filenames and
content markers. Converters are registered per process; by default this
command asks the running server which ones it carries, and falls back to
this process's own registry when no server is reachable.

Examples:
  heimdall converters          # Formats plus the server's converters
  heimdall converters --local  # Skip the server, show this process only`,
	RunE: runConverters,
}

func init() {
	ConvertersCmd.Flags().Bool("local", false, "List this process's registry instead of asking the server")
	ConvertersCmd.Flags().String("server", "", "Server address (default from config)")
	ConvertersCmd.Flags().Bool("json", false, "Output the listing in JSON format")
}

// converterReport is the converters command's output document.
type converterReport struct {
	Fingerprinted []detect.Format    `json:"fingerprinted"`
	Heuristic     []detect.Format    `json:"heuristic"`
	Converters    []convert.Metadata `json:"converters"`
	Source        string             `json:"source"` // server address or "local"
}

func runConverters(cmd *cobra.Command, args []string) error {
	localOnly, _ := cmd.Flags().GetBool("local")

	report := converterReport{
		Fingerprinted: detect.Fingerprinted(),
		Heuristic: []detect.Format{
			detect.FormatNessus, detect.FormatXCCDF, detect.FormatBurp,
			detect.FormatScoutSuite, detect.FormatDBProtect, detect.FormatNetsparker,
		},
		Source: "local",
	}

	if !localOnly {
		if list, err := newAPIClient(cmd).Converters(cmd.Context()); err == nil {
			report.Converters = list.Converters
			report.Source = serverAddress(cmd)
		}
	}
	if report.Source == "local" {
		report.Converters = activeRegistry().List()
	}
	sort.Slice(report.Converters, func(i, j int) bool {
		return report.Converters[i].Name < report.Converters[j].Name
	})

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(report)
	}

	fmt.Println("Detectable formats:")
	fmt.Printf("  fingerprint: ")
	printFormats(report.Fingerprinted)
	fmt.Printf("  heuristic:   ")
	printFormats(report.Heuristic)
	fmt.Println()

	if len(report.Converters) == 0 {
		fmt.Printf("No converters registered (%s)\n", report.Source)
		return nil
	}

	fmt.Printf("Registered converters (%s):\n", report.Source)
	fmt.Printf("%-15s %-10s %-12s %s\n", "NAME", "VERSION", "API", "DESCRIPTION")
	fmt.Printf("%-15s %-10s %-12s %s\n", "----", "-------", "---", "-----------")
	for _, meta := range report.Converters {
		fmt.Printf("%-15s %-10s %-12s %s\n",
			meta.Name, meta.Version, meta.APIVersion, display.Truncate(meta.Description, 40))
	}

	fmt.Printf("\nTotal: %d converter(s)\n", len(report.Converters))
	return nil
}

func printFormats(formats []detect.Format) {
	for i, format := range formats {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Print(string(format))
	}
	fmt.Println()
}
