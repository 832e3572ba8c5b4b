package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX  ControllerType = "launchpad-x"
	ControllerKeyboard    ControllerType = "keyboard"
	ControllerGenericGrid ControllerType = "generic-grid"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string         `json:"portName" yaml:"portName"` // prefix match, case-insensitive
	Type        ControllerType `json:"type" yaml:"type"`
	AutoConnect bool           `json:"autoConnect" yaml:"autoConnect"`
}

// SamplerConfig controls the gain sampler loop
type SamplerConfig struct {
	IntervalMS int `json:"intervalMs,omitempty" yaml:"intervalMs,omitempty"`
	Capacity   int `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// TemplateConfig controls how the pattern template is loaded and processed
type TemplateConfig struct {
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	MuteSentinel string `json:"muteSentinel,omitempty" yaml:"muteSentinel,omitempty"`
	Expressions  bool   `json:"expressions,omitempty" yaml:"expressions,omitempty"`
}

// StorageConfig locates the persistent settings slot
type StorageConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	Key  string `json:"key,omitempty" yaml:"key,omitempty"`
}

// ChartConfig controls the exported gain chart
type ChartConfig struct {
	Output string `json:"output,omitempty" yaml:"output,omitempty"` // .svg or .png; empty disables export
}

// PlayerConfig selects the engine the deck drives
type PlayerConfig struct {
	Kind    string   `json:"kind,omitempty" yaml:"kind,omitempty"` // "sim" or "process"
	Command []string `json:"command,omitempty" yaml:"command,omitempty"`
}

// MIDIConfig lists hardware controllers and their note bindings
type MIDIConfig struct {
	Enabled     bool               `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Controllers []ControllerConfig `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	Bindings    map[uint8]string   `json:"bindings,omitempty" yaml:"bindings,omitempty"` // note -> action
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty" yaml:"palette,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Sampler  SamplerConfig  `json:"sampler,omitempty" yaml:"sampler,omitempty"`
	Template TemplateConfig `json:"template,omitempty" yaml:"template,omitempty"`
	Storage  StorageConfig  `json:"storage,omitempty" yaml:"storage,omitempty"`
	Chart    ChartConfig    `json:"chart,omitempty" yaml:"chart,omitempty"`
	Player   PlayerConfig   `json:"player,omitempty" yaml:"player,omitempty"`
	MIDI     MIDIConfig     `json:"midi,omitempty" yaml:"midi,omitempty"`
	UI       UIConfig       `json:"ui,omitempty" yaml:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Sampler: SamplerConfig{
			IntervalMS: 400,
			Capacity:   50,
		},
		Template: TemplateConfig{
			MuteSentinel: "_",
		},
		Storage: StorageConfig{
			Key: "strudelSettings",
		},
		Player: PlayerConfig{
			Kind: "sim",
		},
		MIDI: MIDIConfig{
			Controllers: []ControllerConfig{
				{
					PortName:    "Launchpad X LPX MIDI",
					Type:        ControllerLaunchpadX,
					AutoConnect: true,
				},
			},
			Bindings: map[uint8]string{
				36: "play",
				37: "stop",
				38: "drums1",
				39: "bass",
			},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-livedeck"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from path (or the default location when path is
// empty), or returns defaults if the file does not exist. Fields missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a config blob on top of the defaults. YAML is used for
// .yml/.yaml files; anything else is tried as JSON first and YAML second.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		if errJSON := json.Unmarshal(data, cfg); errJSON != nil {
			cfg = DefaultConfig()
			if errYaml := yaml.Unmarshal(data, cfg); errYaml != nil {
				return nil, fmt.Errorf("not valid .json (%v) or .yml (%v)", errJSON, errYaml)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the deck misbehave
func (c *Config) Validate() error {
	var errs []error
	if c.Sampler.IntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("sampler.intervalMs must be positive, got %d", c.Sampler.IntervalMS))
	}
	if c.Sampler.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("sampler.capacity must be positive, got %d", c.Sampler.Capacity))
	}
	if utf8.RuneCountInString(c.Template.MuteSentinel) != 1 {
		errs = append(errs, fmt.Errorf("template.muteSentinel must be a single character, got %q", c.Template.MuteSentinel))
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		errs = append(errs, errors.New("storage.key is required"))
	}
	switch c.Player.Kind {
	case "sim":
	case "process":
		if len(c.Player.Command) == 0 {
			errs = append(errs, errors.New("player.command is required for the process player"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown player.kind %q", c.Player.Kind))
	}
	return errors.Join(errs...)
}

// Interval returns the sampler poll interval
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Sampler.IntervalMS) * time.Millisecond
}

// StoragePath returns the settings slot file, defaulting to storage.json in
// the config directory.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "storage.json"), nil
}

// Save writes the config as JSON to path (or the default location)
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindController finds a controller config whose port name prefixes portName
func (c *Config) FindController(portName string) *ControllerConfig {
	name := strings.ToLower(portName)
	for i := range c.MIDI.Controllers {
		if strings.HasPrefix(name, strings.ToLower(c.MIDI.Controllers[i].PortName)) {
			return &c.MIDI.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.MIDI.Controllers {
		if c.MIDI.Controllers[i].PortName == ctrl.PortName {
			c.MIDI.Controllers[i] = ctrl
			return
		}
	}
	c.MIDI.Controllers = append(c.MIDI.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.MIDI.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}
