package config

import (
	"os"

	"github.com/nulltoken/heimdall2/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 means default, negative or above the port range is invalid
	if c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Server.Port > 65535 {
		return errors.Newf("server.port must be <= 65535, got %d", c.Server.Port)
	}

	// Client cap: 0 = use default, negative = invalid
	if c.Server.MaxClients < 0 {
		return errors.Newf("server.max_clients must be >= 0, got %d", c.Server.MaxClients)
	}

	// Upload cap: 0 = use default, negative = invalid
	if c.Server.MaxUploadMB < 0 {
		return errors.Newf("server.max_upload_mb must be >= 0, got %d", c.Server.MaxUploadMB)
	}

	// Rate cap: 0 = unlimited, negative = invalid
	if c.Intake.MaxFiresPerMinute < 0 {
		return errors.Newf("intake.max_fires_per_minute must be >= 0, got %d", c.Intake.MaxFiresPerMinute)
	}

	// Watch directories must exist when configured so the watcher can start
	for _, dir := range c.Intake.WatchDirs {
		if dir == "" {
			return errors.New("intake.watch_dirs entries cannot be empty")
		}
		info, err := os.Stat(dir)
		if err != nil {
			return errors.Newf("intake.watch_dirs entry %s is not accessible: %v", dir, err)
		}
		if !info.IsDir() {
			return errors.Newf("intake.watch_dirs entry %s is not a directory", dir)
		}
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	return nil
}
