// Package config loads and persists the Heimdall configuration.
//
// Configuration is read from heimdall.toml files merged in precedence
// order (system, then user, then project), with HEIMDALL_* environment
// variables overriding file values. The user file under ~/.heimdall/ is
// the only one Heimdall writes back to.
package config

// Config is the root Heimdall configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Intake IntakeConfig `mapstructure:"intake"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds the HTTP/WebSocket server settings
type ServerConfig struct {
	Host           string   `mapstructure:"host"`            // Bind address (default: 127.0.0.1)
	Port           int      `mapstructure:"port"`            // Listen port (default: 8670)
	AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS origins; empty = localhost variants
	MaxClients     int      `mapstructure:"max_clients"`     // Concurrent WebSocket client cap (default: 32)
	MaxUploadMB    int      `mapstructure:"max_upload_mb"`   // Upload size cap in MiB (default: 64)
}

// IntakeConfig holds the directory watcher settings
type IntakeConfig struct {
	WatchDirs         []string `mapstructure:"watch_dirs"`           // Directories watched for dropped scan reports
	WatchExtensions   []string `mapstructure:"watch_extensions"`     // Extensions eligible for intake; empty = all files
	MaxFiresPerMinute int      `mapstructure:"max_fires_per_minute"` // Per-directory ingestion rate cap (default: 30)
}

// LogConfig holds the logging settings
type LogConfig struct {
	JSON      bool `mapstructure:"json"`      // Emit JSON log lines instead of console output
	Verbosity int  `mapstructure:"verbosity"` // 0 = info, 1 = debug, 2+ = debug with caller detail
}

// Port constants
const (
	DefaultServerPort = 8670 // Development port, above the privileged range
)

// File permission constants
const (
	DefaultDirPermissions  = 0755 // Directories created by Heimdall
	DefaultFilePermissions = 0644 // Config files written by Heimdall
)

// Sizing defaults applied by SetDefaults
const (
	DefaultServerHost        = "127.0.0.1"
	DefaultMaxClients        = 32
	DefaultMaxUploadMB       = 64
	DefaultMaxFiresPerMinute = 30
)
