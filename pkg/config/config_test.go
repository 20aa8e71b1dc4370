package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_ADDRESS", "SERVER_PORT", "SERVER_SCHEME", "OS_USERNAME", "OS_PASSWORD",
		"OS_TENANT_NAME", "OS_TOKEN", "FUEL_CA_FILE", "FUEL_INSECURE", "HTTP_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(SettingsPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	s, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s != Defaults() {
		t.Fatalf("Load() = %+v, expected defaults %+v", s, Defaults())
	}
	if got := s.BaseURL(); got != "http://127.0.0.1:8000/api/v1/" {
		t.Fatalf("BaseURL() = %q", got)
	}
}

func TestLoadLayersFileDotEnvAndEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "fuel_client.yaml")
	settings := "SERVER_ADDRESS: 10.20.0.2\nSERVER_PORT: 8000\nOS_USERNAME: file-user\nHTTP_TIMEOUT: 30\nFUEL_INSECURE: true\n"
	if err := os.WriteFile(settingsPath, []byte(settings), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("OS_PASSWORD=from-dotenv\nOS_USERNAME=dotenv-user\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv(SettingsPathEnv, settingsPath)
	t.Setenv("SERVER_PORT", "8443")

	s, err := Load(envPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.ServerAddress != "10.20.0.2" {
		t.Fatalf("ServerAddress = %q, expected file value", s.ServerAddress)
	}
	if s.ServerPort != "8443" {
		t.Fatalf("ServerPort = %q, expected environment to win", s.ServerPort)
	}
	if s.Username != "dotenv-user" || s.Password != "from-dotenv" {
		t.Fatalf("credentials = %q/%q, expected .env values", s.Username, s.Password)
	}
	if s.Timeout != 30*time.Second {
		t.Fatalf("Timeout = %s, expected 30s", s.Timeout)
	}
	if !s.Insecure {
		t.Fatal("Insecure should be set from settings file")
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv(SettingsPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_TIMEOUT", "soon")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() expected error for unparsable HTTP_TIMEOUT")
	}
}

func TestSetServer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		expected string
	}{
		{"10.0.0.5:9000", "http://10.0.0.5:9000"},
		{"https://fuel.example.com:8443/", "https://fuel.example.com:8443"},
		{"fuel.local", "http://fuel.local:8000"},
	}
	for _, tc := range cases {
		s := Defaults()
		if err := s.SetServer(tc.in); err != nil {
			t.Fatalf("SetServer(%q) error = %v", tc.in, err)
		}
		if got := s.ServerURL(); got != tc.expected {
			t.Fatalf("SetServer(%q) -> %q, expected %q", tc.in, got, tc.expected)
		}
	}
}
