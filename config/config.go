// Package config provides configuration loading for chatnav using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Log settings
type Log struct {
	Level  string `toml:"level"`  // trace, debug, info, warn, error
	Format string `toml:"format"` // "text" or "json"
}

// Navigator settings
type Navigator struct {
	DebounceMs  int    `toml:"debounceMs"`  // quiet period before re-extracting after page changes
	HighlightMs int    `toml:"highlightMs"` // how long a selected message stays emphasized
	DismissKey  string `toml:"dismissKey"`  // KeyboardEvent.key that closes the panels
}

// Browser settings
type Browser struct {
	ChromePath     string `toml:"chromePath"`
	UserAgent      string `toml:"userAgent"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	Headless       bool   `toml:"headless"`
	RemoteURL      string `toml:"remoteURL"` // attach to a running Chrome instead of launching one
}

// Rules settings
type Rules struct {
	Dir string `toml:"dir"` // override profiles; empty = ~/.config/chatnav/rules
}

// Config is the main configuration struct
type Config struct {
	Log       Log       `toml:"log"`
	Navigator Navigator `toml:"navigator"`
	Browser   Browser   `toml:"browser"`
	Rules     Rules     `toml:"rules"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Navigator: Navigator{
			DebounceMs:  500,
			HighlightMs: 2000,
			DismissKey:  "Escape",
		},
		Browser: Browser{
			TimeoutSeconds: 30,
		},
	}
}

// Debounce returns the navigator quiet period.
func (n Navigator) Debounce() time.Duration {
	return time.Duration(n.DebounceMs) * time.Millisecond
}

// Highlight returns how long a selection stays emphasized.
func (n Navigator) Highlight() time.Duration {
	return time.Duration(n.HighlightMs) * time.Millisecond
}

// Timeout returns the per-call browser timeout.
func (b Browser) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chatnav"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the user config file, layered on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return Default(), nil // Return defaults if we can't determine path
	}
	return LoadFile(configPath)
}

// LoadFile loads the config file at path on top of defaults. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	// Decoding onto the defaults keeps every key the file leaves out,
	// including booleans.
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("loading config from %s: unknown keys %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values a file could have set out of range.
func (c *Config) Validate() error {
	if c.Navigator.DebounceMs <= 0 {
		return fmt.Errorf("navigator.debounceMs must be positive, got %d", c.Navigator.DebounceMs)
	}
	if c.Navigator.HighlightMs <= 0 {
		return fmt.Errorf("navigator.highlightMs must be positive, got %d", c.Navigator.HighlightMs)
	}
	if c.Navigator.DismissKey == "" {
		return fmt.Errorf("navigator.dismissKey must not be empty")
	}
	if c.Browser.TimeoutSeconds <= 0 {
		return fmt.Errorf("browser.timeoutSeconds must be positive, got %d", c.Browser.TimeoutSeconds)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// DefaultTOML returns the default configuration as a TOML string.
// Used by init-config to generate a user config file.
func DefaultTOML() string {
	return `# chatnav configuration
# Save to ~/.config/chatnav/config.toml and customize
# Only include settings you want to change from defaults

[log]
level = "info"                # trace, debug, info, warn, error
format = "text"               # "text" or "json"

[navigator]
debounceMs = 500              # Quiet period after page changes before re-extracting
highlightMs = 2000            # How long a selected message stays highlighted
dismissKey = "Escape"         # Key that closes the panels

[browser]
chromePath = ""               # Path to Chrome/Chromium (empty = auto-detect)
userAgent = ""                # Empty = built-in desktop Chrome user agent
timeoutSeconds = 30           # Per DevTools call
headless = false              # Chat platforms need a logged-in, visible browser
remoteURL = ""                # ws:// DevTools URL of a running Chrome (skips launching)

[rules]
dir = ""                      # Selector overrides, <platform>.json (empty = ~/.config/chatnav/rules)
`
}
