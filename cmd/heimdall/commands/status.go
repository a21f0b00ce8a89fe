package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/display"
	"github.com/nulltoken/heimdall2/errors"
)

// StatusCmd represents the status command
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show running server health",
	Long: `Query a running Heimdall server for its health and runtime counters.

Examples:
  heimdall status                          # Health of the configured server
  heimdall status --server 127.0.0.1:9000  # Target a non-default server`,
	RunE: runStatus,
}

func init() {
	StatusCmd.Flags().String("server", "", "Server address (default from config)")
	StatusCmd.Flags().Bool("json", false, "Output health in JSON format")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := newAPIClient(cmd)
	health, err := client.Health(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to query server health")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(health)
	}

	fmt.Printf("Server:      %s (%s)\n", serverAddress(cmd), health.State)
	fmt.Printf("Version:     %s (commit %s)\n", health.Version, health.Commit)
	fmt.Printf("Uptime:      %s\n", (time.Duration(health.UptimeSeconds) * time.Second).String())
	fmt.Printf("Clients:     %d\n", health.Clients)
	fmt.Printf("Evaluations: %d (%d selected)\n", health.Evaluations, health.Selected)
	fmt.Printf("Converters:  %d\n", health.Converters)
	return nil
}
