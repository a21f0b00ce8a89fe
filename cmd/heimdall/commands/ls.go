package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/display"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/internal/api"
)

// LsCmd represents the ls command
var LsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List evaluations held by the running server",
	Long: `List the evaluations a running Heimdall server holds in memory.

Each row shows the evaluation ID, kind, source format, and whether the
evaluation is currently selected for display surfaces.

Examples:
  heimdall ls                          # List all evaluations
  heimdall ls --selected               # Only the selected set
  heimdall ls --server 127.0.0.1:9000  # Target a non-default server`,
	RunE: runLs,
}

func init() {
	LsCmd.Flags().Bool("selected", false, "Show only selected evaluations")
	LsCmd.Flags().String("server", "", "Server address (default from config)")
	LsCmd.Flags().Bool("json", false, "Output the listing in JSON format")
}

func runLs(cmd *cobra.Command, args []string) error {
	selectedOnly, _ := cmd.Flags().GetBool("selected")

	client := newAPIClient(cmd)
	list, err := client.Evaluations(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to list evaluations")
	}

	entries := list.Evaluations
	if selectedOnly {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.Selected {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(api.EvaluationList{Evaluations: entries, Count: len(entries)})
	}

	if len(entries) == 0 {
		fmt.Println("No evaluations loaded")
		return nil
	}

	fmt.Printf("%-3s %-10s %-10s %-12s %-9s %-9s %-25s %s\n",
		"SEL", "ID", "KIND", "FORMAT", "PROFILES", "CONTROLS", "FILENAME", "LOADED")
	fmt.Printf("%-3s %-10s %-10s %-12s %-9s %-9s %-25s %s\n",
		"---", "--", "----", "------", "--------", "--------", "--------", "------")

	for _, entry := range entries {
		mark := ""
		if entry.Selected {
			mark = "*"
		}
		format := entry.Format
		if format == "" {
			format = "-"
		}
		fmt.Printf("%-3s %-10s %-10s %-12s %-9d %-9d %-25s %s\n",
			mark,
			shortID(entry.ID),
			entry.Kind,
			format,
			entry.Profiles,
			entry.Controls,
			display.Truncate(entry.Filename, 25),
			entry.LoadedAt.Format("2006-01-02 15:04"))
	}

	fmt.Printf("\nTotal: %d evaluation(s)\n", len(entries))
	return nil
}
