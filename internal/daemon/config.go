// Package daemon manages the lumen daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/lumen-display/lumen/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Display DisplayConfig `toml:"display"`
	Policy  PolicyConfig  `toml:"policy"`
	Idle    IdleConfig    `toml:"idle"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// ModeConfig describes one hardware mode in the config file.
type ModeConfig struct {
	ID    int32   `toml:"id"`
	Fps   float64 `toml:"fps"`
	Group int     `toml:"group"`
}

// DisplayConfig describes the panel the daemon drives.
type DisplayConfig struct {
	Modes       []ModeConfig `toml:"modes"`
	CurrentMode int32        `toml:"current_mode"`
}

// PolicyConfig is the display manager policy applied at startup.
type PolicyConfig struct {
	DefaultMode         int32   `toml:"default_mode"`
	AllowGroupSwitching bool    `toml:"allow_group_switching"`
	PrimaryMin          float64 `toml:"primary_min"`
	PrimaryMax          float64 `toml:"primary_max"`
	AppRequestMin       float64 `toml:"app_request_min"`
	AppRequestMax       float64 `toml:"app_request_max"`
}

// IdleConfig controls display idle detection.
type IdleConfig struct {
	// Timeout is how long without frames before the display counts
	// as idle, e.g. "5s".
	Timeout string `toml:"timeout"`
	// SurfaceExpiry is how long a surface may go silent before its
	// vote stops counting, e.g. "2s".
	SurfaceExpiry string `toml:"surface_expiry"`
	// TouchWindow is how recently the user must have interacted for
	// the input probe to raise the touch boost, e.g. "500ms".
	TouchWindow string `toml:"touch_window"`
}

// StorageConfig controls the state database.
type StorageConfig struct {
	Dir string `toml:"dir"`
	// JournalRetention bounds the decision journal, e.g. "168h".
	JournalRetention string `toml:"journal_retention"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns a sensible default configuration: a common
// 60/90 Hz panel with both modes in one group.
func DefaultConfig() Config {
	homeDir := lumenHome()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        9411,
			CORSOrigins: []string{"*"},
		},
		Display: DisplayConfig{
			Modes: []ModeConfig{
				{ID: 0, Fps: 60, Group: 0},
				{ID: 1, Fps: 90, Group: 0},
			},
			CurrentMode: 0,
		},
		Policy: PolicyConfig{
			DefaultMode:   0,
			PrimaryMin:    60,
			PrimaryMax:    90,
			AppRequestMin: 60,
			AppRequestMax: 90,
		},
		Idle: IdleConfig{
			Timeout:       "5s",
			SurfaceExpiry: "2s",
			TouchWindow:   "500ms",
		},
		Storage: StorageConfig{
			Dir:              homeDir,
			JournalRetention: "168h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads config from ~/.lumen/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(lumenHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.lumen/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(lumenHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// DomainModes converts the configured mode list to domain form.
func (c DisplayConfig) DomainModes() []domain.DisplayMode {
	out := make([]domain.DisplayMode, 0, len(c.Modes))
	for _, m := range c.Modes {
		out = append(out, domain.DisplayMode{
			ID:    domain.ModeID(m.ID),
			Fps:   domain.Fps(m.Fps),
			Group: m.Group,
		})
	}
	return out
}

// DomainPolicy converts the configured startup policy to domain form.
func (c PolicyConfig) DomainPolicy() domain.Policy {
	return domain.Policy{
		DefaultMode:         domain.ModeID(c.DefaultMode),
		AllowGroupSwitching: c.AllowGroupSwitching,
		Primary: domain.FpsRange{
			Min: domain.Fps(c.PrimaryMin),
			Max: domain.Fps(c.PrimaryMax),
		},
		AppRequest: domain.FpsRange{
			Min: domain.Fps(c.AppRequestMin),
			Max: domain.Fps(c.AppRequestMax),
		},
	}
}

// lumenHome returns the lumen data directory.
func lumenHome() string {
	if env := os.Getenv("LUMEN_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lumen")
}

// LumenHome is exported for use by other packages.
func LumenHome() string {
	return lumenHome()
}
