package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Remote      RemoteConfig      `yaml:"remote"`
	Pairing     PairingConfig     `yaml:"pairing"`
	Wake        WakeConfig        `yaml:"wake"`
	Advertising AdvertisingConfig `yaml:"advertising"`
	Store       StoreConfig       `yaml:"store"`
	Input       InputConfig       `yaml:"input"`
	HTTP        HTTPConfig        `yaml:"http"`
	BlueZ       BlueZConfig       `yaml:"bluez"`
}

// RemoteConfig controls how the remote identifies itself on air.
type RemoteConfig struct {
	Label      string `yaml:"label"`
	Identifier string `yaml:"identifier"`
}

// PairingConfig holds pairing session settings.
type PairingConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// WakeConfig holds wake broadcast settings.
type WakeConfig struct {
	Pulse time.Duration `yaml:"pulse"`
}

// AdvertisingConfig holds broadcast switching settings.
type AdvertisingConfig struct {
	Settle time.Duration `yaml:"settle"` // wait for the stack to confirm a stop
}

// StoreConfig locates the paired-camera store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// InputConfig maps keyboard combos to the remote's buttons.
type InputConfig struct {
	Enabled      bool          `yaml:"enabled"`
	StartupDelay time.Duration `yaml:"startup_delay"`
	ActionDelay  time.Duration `yaml:"action_delay"`
	Keys         KeysConfig    `yaml:"keys"`
}

// KeysConfig holds one key combo per button.
type KeysConfig struct {
	Next    []string `yaml:"next"`
	Run     []string `yaml:"run"`
	Shutter []string `yaml:"shutter"`
	Sleep   []string `yaml:"sleep"`
	Wake    []string `yaml:"wake"`
}

// HTTPConfig holds the local control API settings.
type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty disables the API
}

// BlueZConfig holds Linux adapter settings.
type BlueZConfig struct {
	Adapter string `yaml:"adapter"`
	PowerOn bool   `yaml:"power_on"`
}

const (
	// MaxAdvertisingSettle bounds the stop-confirm wait.
	MaxAdvertisingSettle = time.Second
	// MaxWakePulse bounds the wake broadcast. The control API answers a wake
	// only after the pulse ends, so clients must be able to wait this long.
	MaxWakePulse = 10 * time.Second
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "camremote")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	home, _ := os.UserHomeDir()
	storePath := filepath.Join(home, ".local", "share", "camremote", "prefs.yaml")

	return &Config{
		LogLevel: "info",
		Remote: RemoteConfig{
			Label:      "Insta360 GPS Remote",
			Identifier: "A1B2",
		},
		Pairing:     PairingConfig{Timeout: 30 * time.Second},
		Wake:        WakeConfig{Pulse: 3 * time.Second},
		Advertising: AdvertisingConfig{Settle: 100 * time.Millisecond},
		Store:       StoreConfig{Path: storePath},
		Input: InputConfig{
			Enabled:      true,
			StartupDelay: 2 * time.Second,
			Keys: KeysConfig{
				Next:    []string{"ctrl", "alt", "n"},
				Run:     []string{"ctrl", "alt", "enter"},
				Shutter: []string{"ctrl", "alt", "s"},
				Sleep:   []string{"ctrl", "alt", "z"},
				Wake:    []string{"ctrl", "alt", "w"},
			},
		},
		HTTP: HTTPConfig{Listen: "127.0.0.1:8736"},
		BlueZ: BlueZConfig{
			Adapter: "hci0",
			PowerOn: true,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in store.path is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Store.Path = expandTilde(cfg.Store.Path)

	return cfg, nil
}

// BroadcastName is the name the remote advertises under.
func (c *Config) BroadcastName() string {
	return strings.TrimSpace(c.Remote.Label + " " + c.Remote.Identifier)
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if strings.TrimSpace(c.Remote.Label) == "" {
		return errors.New("remote.label must not be empty")
	}
	if !identifierPattern.MatchString(c.Remote.Identifier) {
		return fmt.Errorf("remote.identifier must be 1-8 letters or digits, got %q", c.Remote.Identifier)
	}

	if c.Pairing.Timeout <= 0 {
		return errors.New("pairing.timeout must be > 0")
	}
	if c.Wake.Pulse <= 0 || c.Wake.Pulse > MaxWakePulse {
		return fmt.Errorf("wake.pulse must be > 0 and at most %s, got %s", MaxWakePulse, c.Wake.Pulse)
	}
	if c.Advertising.Settle < 0 || c.Advertising.Settle > MaxAdvertisingSettle {
		return fmt.Errorf("advertising.settle must be between 0 and %s, got %s", MaxAdvertisingSettle, c.Advertising.Settle)
	}

	if c.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}

	if c.Input.Enabled {
		if c.Input.StartupDelay < 0 || c.Input.ActionDelay < 0 {
			return errors.New("input delays must not be negative")
		}
		keys := map[string][]string{
			"next":    c.Input.Keys.Next,
			"run":     c.Input.Keys.Run,
			"shutter": c.Input.Keys.Shutter,
			"sleep":   c.Input.Keys.Sleep,
			"wake":    c.Input.Keys.Wake,
		}
		for name, combo := range keys {
			if len(combo) == 0 {
				return fmt.Errorf("input.keys.%s must not be empty", name)
			}
		}
	}

	if c.BlueZ.Adapter == "" {
		return errors.New("bluez.adapter must not be empty")
	}

	return nil
}

// ParseLogLevel maps a log_level value to a slog level. Unknown values
// default to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = `# camremote configuration
#
# Durations use Go syntax: 30s, 100ms, 2m.
# store.path holds the paired camera; "camremote forget" clears it.
# http.listen is the local control API used by the CLI; empty disables it.

`

// WriteDefault writes the default config to DefaultConfigPath with a header
// comment. It returns the path written, or "" when a config file already
// exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking config file: %w", err)
	}

	cfg := Default()
	// Keep the home directory symbolic so the file is portable.
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(cfg.Store.Path, home) {
		cfg.Store.Path = "~" + strings.TrimPrefix(cfg.Store.Path, home)
	}

	var buf bytes.Buffer
	buf.WriteString(defaultHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
