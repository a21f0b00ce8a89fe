package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsBackupFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/home/user/.heimdall/heimdall.toml.back1", true},
		{"/home/user/.heimdall/heimdall.toml.back2", true},
		{"/home/user/.heimdall/heimdall.toml.back3", true},
		{"/home/user/.heimdall/heimdall.toml", false},
		{"heimdall.toml.back4", false},
		{"other.toml.back1", false},
	}

	for _, tt := range tests {
		if got := isBackupFile(tt.path); got != tt.want {
			t.Errorf("isBackupFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestOwnWriteFlag(t *testing.T) {
	cw := &ConfigWatcher{}

	if cw.checkOwnWrite() {
		t.Error("expected clear flag initially")
	}

	cw.MarkOwnWrite()
	if !cw.checkOwnWrite() {
		t.Error("expected flag after MarkOwnWrite")
	}

	// Check clears the flag
	if cw.checkOwnWrite() {
		t.Error("expected flag cleared after check")
	}
}

func TestNewConfigWatcherMissingFile(t *testing.T) {
	_, err := NewConfigWatcher(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestReloadInvokesCallbacks(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "heimdall.toml")
	if err := os.WriteFile(configPath, []byte("[server]\nport = 9300\n"), DefaultFilePermissions); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("HOME", tmpDir)
	t.Setenv("HEIMDALL_CONFIG_PATH", configPath)

	cw, err := NewConfigWatcher(configPath)
	if err != nil {
		t.Fatalf("NewConfigWatcher() failed: %v", err)
	}
	defer cw.Stop()

	var seen *Config
	cw.OnReload(func(cfg *Config) error {
		seen = cfg
		return nil
	})

	if err := cw.reload(); err != nil {
		t.Fatalf("reload() failed: %v", err)
	}

	if seen == nil {
		t.Fatal("expected reload callback to run")
	}
	if seen.Server.Port != 9300 {
		t.Errorf("expected reloaded port 9300, got %d", seen.Server.Port)
	}
}

func TestGlobalWatcherAccessors(t *testing.T) {
	original := GetGlobalWatcher()
	t.Cleanup(func() { SetGlobalWatcher(original) })

	cw := &ConfigWatcher{}
	SetGlobalWatcher(cw)

	if GetGlobalWatcher() != cw {
		t.Error("expected global watcher to round-trip")
	}
}
