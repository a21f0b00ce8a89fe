package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.max_clients", DefaultMaxClients)
	v.SetDefault("server.max_upload_mb", DefaultMaxUploadMB)

	// Intake defaults: no directories watched until configured
	v.SetDefault("intake.watch_dirs", []string{})
	v.SetDefault("intake.watch_extensions", []string{".json", ".nessus", ".xml"})
	v.SetDefault("intake.max_fires_per_minute", DefaultMaxFiresPerMinute)

	// Log defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// GetServerPort returns the configured server port
// Returns server.port from config, or DefaultServerPort (8670) if not configured
func GetServerPort() int {
	cfg, err := Load()
	if err != nil || cfg.Server.Port == 0 {
		return DefaultServerPort
	}
	return cfg.Server.Port
}

// Addr returns the host:port bind address for the server
func (c *Config) Addr() string {
	host := c.Server.Host
	if host == "" {
		host = DefaultServerHost
	}
	port := c.Server.Port
	if port == 0 {
		port = DefaultServerPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
		}
	}
	return c.Server.AllowedOrigins
}

// MaxUploadBytes returns the upload size cap in bytes
func (c *Config) MaxUploadBytes() int64 {
	mb := c.Server.MaxUploadMB
	if mb <= 0 {
		mb = DefaultMaxUploadMB
	}
	return int64(mb) << 20
}

// GetMaxClients returns the WebSocket client cap
func (c *Config) GetMaxClients() int {
	if c.Server.MaxClients <= 0 {
		return DefaultMaxClients
	}
	return c.Server.MaxClients
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: %s, Intake: {WatchDirs: %d}, Log: {Verbosity: %d}}",
		c.Addr(), len(c.Intake.WatchDirs), c.Log.Verbosity)
}
