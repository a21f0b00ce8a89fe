package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/config"
	"github.com/nulltoken/heimdall2/display"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Heimdall configuration",
	Long: `Display and manage Heimdall configuration settings.

Configuration sources (in order of precedence):
1. Environment variables (HEIMDALL_* prefix)
2. Explicit config file (HEIMDALL_CONFIG_PATH)
3. Project config (./heimdall.toml, searched up the directory tree)
4. User config (~/.heimdall/heimdall.toml)
5. System config (/etc/heimdall/heimdall.toml)
6. Default values

Examples:
  heimdall config show                  # Show current configuration
  heimdall config show --format json    # Show configuration in JSON format
  heimdall config get server.port       # Get a specific config value
  heimdall config set server.port 9000  # Persist a value to the user config
  heimdall config path                  # Show which files are in effect
  heimdall config validate              # Validate current configuration`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged Heimdall configuration from all sources",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., server.port, intake.watch_dirs)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Long: `Persist a configuration value to the user config file.

The value is written to ~/.heimdall/heimdall.toml, the only file
Heimdall writes back to. Rolling backups (.back1/.back2) of the previous
file are kept next to it. Values are parsed as bool or integer when they
look like one, and stored as strings otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which files exist.

Lists all configuration sources in order of precedence, marking the
files that are present on this machine.`,
	RunE: runConfigPath,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate that the merged Heimdall configuration is usable",
	RunE:  runConfigValidate,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configSetCmd)
	ConfigCmd.AddCommand(configPathCmd)
	ConfigCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch configFormat {
	case "json":
		return display.OutputJSON(cfg)

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Printf("# Heimdall configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json)", configFormat)
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := config.GetViper()
	if !v.IsSet(key) {
		return fmt.Errorf("configuration key %q not found", key)
	}

	fmt.Println(config.Get(key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	if err := config.SetValue(key, parseConfigValue(raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, raw, config.UserConfigPath())
	return nil
}

// parseConfigValue narrows a CLI string to the type TOML should carry.
// Only exact "true"/"false" become bools; "0" and "1" stay integers.
func parseConfigValue(raw string) interface{} {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Println("Configuration cascade (later overrides earlier):")
	fmt.Println("  1. [DEFAULT]  Built-in defaults")
	fmt.Printf("  2. [SYSTEM]   /etc/heimdall/heimdall.toml%s\n", presenceMark("/etc/heimdall/heimdall.toml"))
	fmt.Printf("  3. [USER]     %s%s\n", config.UserConfigPath(), presenceMark(config.UserConfigPath()))
	fmt.Println("  4. [PROJECT]  ./heimdall.toml (searches up directories)")
	if explicit := os.Getenv("HEIMDALL_CONFIG_PATH"); explicit != "" {
		fmt.Printf("  5. [EXPLICIT] %s%s\n", explicit, presenceMark(explicit))
	} else {
		fmt.Println("  5. [EXPLICIT] HEIMDALL_CONFIG_PATH not set")
	}
	fmt.Println("  6. [ENV]      HEIMDALL_* environment variables")
	return nil
}

// presenceMark annotates a cascade path with whether the file exists.
func presenceMark(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err == nil {
		return "  (present)"
	}
	return "  (missing)"
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Println("✓ Configuration is valid")
	return nil
}
