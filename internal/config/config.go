// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/phpcbf/internal/logger"
	"github.com/bethropolis/phpcbf/internal/standard"
)

// Duration wraps time.Duration so TOML/flag values can be written as
// strings like "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds the resolved settings for one fix operation. It is a
// plain value resolved fresh per operation and passed down explicitly;
// there is deliberately no process-wide "current settings" singleton.
type Config struct {
	PHPPath        string            `toml:"php_path"`        // optional PHP interpreter wrapping phpcbf
	PHPCBFPath     string            `toml:"phpcbf_path"`     // phpcbf executable, may contain ${folder}
	Standard       standard.Standard `toml:"phpcs_standard"`  // string or table
	AdditionalArgs []string          `toml:"additional_args"` // extra tokens appended to the command line
	FixOnSave      bool              `toml:"fix_on_save"`
	Timeout        Duration          `toml:"timeout"`
	ValidateOutput bool              `toml:"validate_output"`  // parse-gate the formatter output before patching
	LoopGuardBytes int               `toml:"loop_guard_bytes"` // oscillation guard similarity threshold
	Logger         logger.Config     `toml:"logger"`

	// Folder is the project root used for ${folder} expansion. Resolved
	// per file by ForFile, never read from the config file.
	Folder string `toml:"-"`
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		PHPCBFPath:     DefaultExecutable,
		Timeout:        Duration{DefaultTimeout},
		ValidateOutput: true,
		LoopGuardBytes: DefaultLoopGuardBytes,
		Logger: logger.Config{
			Level: "info",
		},
	}
}

// loadFromFile attempts to load configuration from a TOML file. A
// missing file is not an error. The metadata is needed by merge to tell
// an absent boolean from an explicit false.
func loadFromFile(filePath string) (*Config, toml.MetaData, error) {
	cfg := &Config{}
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return nil, metadata, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if len(metadata.Undecoded()) > 0 {
		logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, metadata.Undecoded())
	}
	return cfg, metadata, nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefault()

	if c.PHPCBFPath == "" {
		c.PHPCBFPath = defaults.PHPCBFPath
	}
	if c.Timeout.Duration <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.LoopGuardBytes < 0 {
		c.LoopGuardBytes = defaults.LoopGuardBytes
	}
	if c.Logger.Level == "" {
		c.Logger.Level = defaults.Logger.Level
	}
}

// Load builds the effective configuration: defaults, overridden by the
// TOML config file (explicit path, or the default location when empty),
// overridden by any parsed flags, then validated.
func Load(configFilePath string, flags *Flags) (*Config, error) {
	cfg := NewDefault()

	effectivePath := configFilePath
	if effectivePath == "" {
		if configDir, err := os.UserConfigDir(); err == nil {
			effectivePath = filepath.Join(configDir, ConfigDirName, DefaultConfigFileName)
		}
	}

	if effectivePath != "" {
		fileCfg, metadata, err := loadFromFile(effectivePath)
		if err != nil {
			return nil, err
		}
		if fileCfg != nil {
			cfg.merge(fileCfg, metadata)
		}
	}

	if flags != nil {
		flags.ApplyOverrides(cfg)
	}

	cfg.validate()
	return cfg, nil
}

// merge overlays the settings present in other onto c.
func (c *Config) merge(other *Config, metadata toml.MetaData) {
	if other.PHPPath != "" {
		c.PHPPath = other.PHPPath
	}
	if other.PHPCBFPath != "" {
		c.PHPCBFPath = other.PHPCBFPath
	}
	if !other.Standard.IsZero() {
		c.Standard = other.Standard
	}
	if other.AdditionalArgs != nil {
		c.AdditionalArgs = other.AdditionalArgs
	}
	if metadata.IsDefined("fix_on_save") {
		c.FixOnSave = other.FixOnSave
	}
	if metadata.IsDefined("validate_output") {
		c.ValidateOutput = other.ValidateOutput
	}
	if other.Timeout.Duration > 0 {
		c.Timeout = other.Timeout
	}
	if other.LoopGuardBytes > 0 {
		c.LoopGuardBytes = other.LoopGuardBytes
	}
	if other.Logger.Level != "" {
		c.Logger.Level = other.Logger.Level
	}
	if other.Logger.File != "" {
		c.Logger.File = other.Logger.File
	}
}
