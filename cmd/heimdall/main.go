package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/cmd/heimdall/commands"
	"github.com/nulltoken/heimdall2/logger"
)

var rootCmd = &cobra.Command{
	Use:   "heimdall",
	Short: "Heimdall - Security scan ingestion and normalization",
	Long: `Heimdall - Normalize security scanner exports into one reviewable format.

Heimdall detects which scanner produced a report, runs the matching
converter, and registers the normalized result for inspection over the
CLI, the REST API, and the live WebSocket feed.

Available commands:
  load       - Ingest report files or URLs
  detect     - Report how a file would be routed, without ingesting
  validate   - Check whether a file is already normalized
  ls         - List evaluations held by the running server
  converters - List known formats and registered converters
  status     - Show running server health
  config     - Manage Heimdall configuration
  server     - Start the ingestion server
  version    - Show build information

Examples:
  heimdall load results/nightly.json    # Ingest a report
  heimdall detect scan.nessus           # Dry-run format detection
  heimdall server --port 8670           # Start the server
  heimdall ls                           # List server-held evaluations`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs
		// Skip for commands whose stdout must stay parseable (like 'config show')
		if cmd.Name() != "show" {
			jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
			if err := logger.Initialize(jsonOutput); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}
		return nil
	},
}

func init() {
	// Initialize logger early so failures before PersistentPreRunE still log cleanly
	if err := logger.Initialize(false); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logger: %v\n", err)
	}

	// Add global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results in JSON format")

	// Add commands
	rootCmd.AddCommand(commands.LoadCmd)
	rootCmd.AddCommand(commands.DetectCmd)
	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.LsCmd)
	rootCmd.AddCommand(commands.ConvertersCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
