package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SettingsPathEnv names the variable that points at a custom settings file.
const SettingsPathEnv = "FUELCLIENT_CUSTOM_SETTINGS"

// Settings holds everything the client needs to reach the control plane.
type Settings struct {
	ServerAddress string        `yaml:"SERVER_ADDRESS"`
	ServerPort    string        `yaml:"SERVER_PORT"`
	Scheme        string        `yaml:"SERVER_SCHEME"`
	Username      string        `yaml:"OS_USERNAME"`
	Password      string        `yaml:"OS_PASSWORD"`
	Tenant        string        `yaml:"OS_TENANT_NAME"`
	Token         string        `yaml:"OS_TOKEN"`
	CAFile        string        `yaml:"FUEL_CA_FILE"`
	Insecure      bool          `yaml:"FUEL_INSECURE"`
	Timeout       time.Duration `yaml:"HTTP_TIMEOUT"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		ServerAddress: "127.0.0.1",
		ServerPort:    "8000",
		Scheme:        "http",
		Username:      "admin",
		Tenant:        "admin",
		Timeout:       60 * time.Second,
	}
}

// Load layers defaults, the settings file, envFile (when it exists) and the
// process environment, later sources winning.
func Load(envFile string) (Settings, error) {
	s := Defaults()
	if err := s.mergeFile(SettingsPath()); err != nil {
		return s, err
	}
	if err := loadDotEnv(envFile); err != nil {
		return s, err
	}
	if err := s.mergeEnv(os.Getenv); err != nil {
		return s, err
	}
	return s, nil
}

// SettingsPath returns the settings file location.
func SettingsPath() string {
	if p := os.Getenv(SettingsPathEnv); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fuel", "fuel_client.yaml")
}

func (s *Settings) mergeFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse settings %s: %w", path, err)
	}
	lookup := func(key string) string {
		v, ok := raw[key]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	if err := s.mergeEnv(lookup); err != nil {
		return fmt.Errorf("settings %s: %w", path, err)
	}
	return nil
}

func (s *Settings) mergeEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&s.ServerAddress, "SERVER_ADDRESS")
	set(&s.ServerPort, "SERVER_PORT")
	set(&s.Scheme, "SERVER_SCHEME")
	set(&s.Username, "OS_USERNAME")
	set(&s.Password, "OS_PASSWORD")
	set(&s.Tenant, "OS_TENANT_NAME")
	set(&s.Token, "OS_TOKEN")
	set(&s.CAFile, "FUEL_CA_FILE")
	if v := strings.TrimSpace(getenv("FUEL_INSECURE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FUEL_INSECURE: %w", err)
		}
		s.Insecure = b
	}
	if v := strings.TrimSpace(getenv("HTTP_TIMEOUT")); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		s.Timeout = d
	}
	return nil
}

// parseTimeout accepts Go durations ("90s") and bare seconds ("90").
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// ServerURL returns scheme://address:port.
func (s Settings) ServerURL() string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := s.ServerAddress
	if s.ServerPort != "" {
		host = net.JoinHostPort(s.ServerAddress, s.ServerPort)
	}
	return scheme + "://" + host
}

// BaseURL returns the API root.
func (s Settings) BaseURL() string {
	return s.ServerURL() + "/api/v1/"
}

// SetServer overrides address and port (and scheme when present) from a
// "host:port" or URL value.
func (s *Settings) SetServer(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if i := strings.Index(value, "://"); i > 0 {
		s.Scheme = value[:i]
		value = value[i+3:]
	}
	value = strings.TrimRight(value, "/")
	host, port, err := net.SplitHostPort(value)
	if err != nil {
		s.ServerAddress = value
		return nil
	}
	if host == "" {
		return fmt.Errorf("server %q has no host", value)
	}
	s.ServerAddress = host
	s.ServerPort = port
	return nil
}

func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
