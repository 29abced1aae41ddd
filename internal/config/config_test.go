package config

import (
	"os"
	"path/filepath"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
[server]
host = "127.0.0.1"
port = 9000

[upstream]
timeout_seconds = 60
idle_connections = 50
max_redirects = 5

[log]
level = "debug"
format = "text"

[metrics]
enabled = true
path = "/internal/metrics"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Upstream.TimeoutSeconds != 60 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want %d", cfg.Upstream.TimeoutSeconds, 60)
	}
	if cfg.Upstream.MaxRedirects != 5 {
		t.Errorf("Upstream.MaxRedirects = %d, want %d", cfg.Upstream.MaxRedirects, 5)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Metrics.Path != "/internal/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/internal/metrics")
	}
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	// An explicit path pointing at a missing file is an error, but no path
	// at all means run on defaults.
	cfg, err := Load(&CLI{})
	if err != nil {
		t.Fatalf("Load() error = %v; the proxy must start without a config file", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Upstream.TimeoutSeconds != 120 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want %d", cfg.Upstream.TimeoutSeconds, 120)
	}
	if cfg.Upstream.MaxRedirects != 10 {
		t.Errorf("Upstream.MaxRedirects = %d, want %d", cfg.Upstream.MaxRedirects, 10)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(cliWithPath(filepath.Join(t.TempDir(), "nope.toml")))
	if err == nil {
		t.Fatal("Load() expected error for explicitly named missing file")
	}
}

func TestLoad_PortCoercion(t *testing.T) {
	tests := []struct {
		name string
		port string
		want int
	}{
		{"numeric port", "8080", 8080},
		{"numeric port with whitespace", " 8080 ", 8080},
		{"non-numeric falls back to default", "not-a-port", DefaultPort},
		{"empty string leaves config untouched", "", DefaultPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(&CLI{Port: tt.port})
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Server.Port != tt.want {
				t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, tt.want)
			}
		})
	}
}

func TestLoad_CLIOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
[server]
host = "127.0.0.1"
port = 9000

[log]
level = "info"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(&CLI{Config: path, Host: "::1", Port: "4000", LogLevel: "debug"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "::1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "::1")
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 4000)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "port out of range",
			data: "[server]\nport = 70000\n",
		},
		{
			name: "negative timeout",
			data: "[upstream]\ntimeout_seconds = -1\n",
		},
		{
			name: "negative redirects",
			data: "[upstream]\nmax_redirects = -1\n",
		},
		{
			name: "bad log level",
			data: "[log]\nlevel = \"verbose\"\n",
		},
		{
			name: "bad log format",
			data: "[log]\nformat = \"xml\"\n",
		},
		{
			name: "metrics path without slash",
			data: "[metrics]\nenabled = true\npath = \"metrics\"\n",
		},
		{
			name: "metrics path shadows healthz",
			data: "[metrics]\nenabled = true\npath = \"/healthz\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(cliWithPath(path)); err == nil {
				t.Fatal("Load() expected validation error, got nil")
			}
		})
	}
}

func TestAddr(t *testing.T) {
	c := ServerConfig{Host: "0.0.0.0", Port: 3000}
	if got := c.Addr(); got != "0.0.0.0:3000" {
		t.Errorf("Addr() = %q, want %q", got, "0.0.0.0:3000")
	}
}
