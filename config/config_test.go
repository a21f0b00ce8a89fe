package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	// Create isolated viper instance without loading user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	if cfg.Server.Host != DefaultServerHost {
		t.Errorf("expected default host %q, got %q", DefaultServerHost, cfg.Server.Host)
	}

	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("expected default port %d, got %d", DefaultServerPort, cfg.Server.Port)
	}

	if cfg.Server.MaxClients != DefaultMaxClients {
		t.Errorf("expected default max clients %d, got %d", DefaultMaxClients, cfg.Server.MaxClients)
	}

	if cfg.Intake.MaxFiresPerMinute != DefaultMaxFiresPerMinute {
		t.Errorf("expected default rate cap %d, got %d", DefaultMaxFiresPerMinute, cfg.Intake.MaxFiresPerMinute)
	}

	if len(cfg.Intake.WatchDirs) != 0 {
		t.Errorf("expected no default watch dirs, got %v", cfg.Intake.WatchDirs)
	}

	if cfg.Log.JSON {
		t.Error("expected console logging by default")
	}
}

func TestValidate_ZeroValues(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "zero port is valid (default)",
			config:  Config{Server: ServerConfig{Port: 0}},
			wantErr: false,
		},
		{
			name:    "negative port is invalid",
			config:  Config{Server: ServerConfig{Port: -1}},
			wantErr: true,
		},
		{
			name:    "port above range is invalid",
			config:  Config{Server: ServerConfig{Port: 70000}},
			wantErr: true,
		},
		{
			name:    "zero max clients is valid (default)",
			config:  Config{Server: ServerConfig{MaxClients: 0}},
			wantErr: false,
		},
		{
			name:    "negative max clients is invalid",
			config:  Config{Server: ServerConfig{MaxClients: -1}},
			wantErr: true,
		},
		{
			name:    "zero rate cap is valid (unlimited)",
			config:  Config{Intake: IntakeConfig{MaxFiresPerMinute: 0}},
			wantErr: false,
		},
		{
			name:    "negative rate cap is invalid",
			config:  Config{Intake: IntakeConfig{MaxFiresPerMinute: -1}},
			wantErr: true,
		},
		{
			name:    "negative upload cap is invalid",
			config:  Config{Server: ServerConfig{MaxUploadMB: -1}},
			wantErr: true,
		},
		{
			name:    "negative verbosity is invalid",
			config:  Config{Log: LogConfig{Verbosity: -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_WatchDirs(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("existing directory is valid", func(t *testing.T) {
		cfg := Config{Intake: IntakeConfig{WatchDirs: []string{tmpDir}}}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() failed for existing dir: %v", err)
		}
	})

	t.Run("missing directory is invalid", func(t *testing.T) {
		cfg := Config{Intake: IntakeConfig{WatchDirs: []string{filepath.Join(tmpDir, "absent")}}}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing watch dir")
		}
	})

	t.Run("file is not a directory", func(t *testing.T) {
		file := filepath.Join(tmpDir, "report.json")
		os.WriteFile(file, []byte("{}"), DefaultFilePermissions)

		cfg := Config{Intake: IntakeConfig{WatchDirs: []string{file}}}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for file watch dir")
		}
	})

	t.Run("empty entry is invalid", func(t *testing.T) {
		cfg := Config{Intake: IntakeConfig{WatchDirs: []string{""}}}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for empty watch dir entry")
		}
	})
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"server.host", DefaultServerHost},
		{"server.port", DefaultServerPort},
		{"server.max_clients", DefaultMaxClients},
		{"server.max_upload_mb", DefaultMaxUploadMB},
		{"intake.max_fires_per_minute", DefaultMaxFiresPerMinute},
		{"log.json", false},
		{"log.verbosity", 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := v.Get(tt.key)
			if got != tt.expected {
				t.Errorf("default %s = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("finds heimdall.toml in parent", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test1", "subdir")
		os.MkdirAll(subDir, DefaultDirPermissions)
		os.WriteFile(filepath.Join(tmpDir, "test1", "heimdall.toml"), []byte(""), DefaultFilePermissions)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		result := findProjectConfig()
		if result == "" {
			t.Fatal("expected to find config file")
		}
		if filepath.Base(result) != "heimdall.toml" {
			t.Errorf("expected heimdall.toml, got %s", filepath.Base(result))
		}
	})

	t.Run("no config found", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test2", "subdir")
		os.MkdirAll(subDir, DefaultDirPermissions)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		result := findProjectConfig()
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "heimdall.toml")

	content := `
[server]
port = 9000
max_clients = 4

[intake]
max_fires_per_minute = 5

[log]
verbosity = 2
`
	if err := os.WriteFile(configPath, []byte(content), DefaultFilePermissions); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxClients != 4 {
		t.Errorf("expected max clients 4, got %d", cfg.Server.MaxClients)
	}
	if cfg.Intake.MaxFiresPerMinute != 5 {
		t.Errorf("expected rate cap 5, got %d", cfg.Intake.MaxFiresPerMinute)
	}
	if cfg.Log.Verbosity != 2 {
		t.Errorf("expected verbosity 2, got %d", cfg.Log.Verbosity)
	}

	// Defaults still apply to keys the file omits
	if cfg.Server.Host != DefaultServerHost {
		t.Errorf("expected default host, got %q", cfg.Server.Host)
	}

	if _, err := LoadFromFile(filepath.Join(tmpDir, "absent.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestGetServerPort(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	// Keep the search away from any real user config
	t.Setenv("HOME", t.TempDir())

	port := GetServerPort()
	if port != DefaultServerPort {
		t.Errorf("expected default port %d, got %d", DefaultServerPort, port)
	}
}

func TestAddr(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"defaults", Config{}, "127.0.0.1:8670"},
		{"explicit", Config{Server: ServerConfig{Host: "0.0.0.0", Port: 9000}}, "0.0.0.0:9000"},
		{"host only", Config{Server: ServerConfig{Host: "10.0.0.5"}}, "10.0.0.5:8670"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := Config{Server: ServerConfig{MaxUploadMB: 2}}
	if got := cfg.MaxUploadBytes(); got != 2<<20 {
		t.Errorf("expected %d bytes, got %d", 2<<20, got)
	}

	var zero Config
	if got := zero.MaxUploadBytes(); got != int64(DefaultMaxUploadMB)<<20 {
		t.Errorf("expected default cap, got %d", got)
	}
}

func TestGetServerAllowedOrigins(t *testing.T) {
	var cfg Config
	origins := cfg.GetServerAllowedOrigins()
	if len(origins) == 0 {
		t.Error("expected fallback origins for empty config")
	}

	cfg.Server.AllowedOrigins = []string{"https://heimdall.example"}
	origins = cfg.GetServerAllowedOrigins()
	if len(origins) != 1 || origins[0] != "https://heimdall.example" {
		t.Errorf("expected configured origins, got %v", origins)
	}
}

func TestEnvOverride(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("HEIMDALL_SERVER_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("expected env override port 9100, got %d", cfg.Server.Port)
	}
}
