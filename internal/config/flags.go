// internal/config/flags.go
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/bethropolis/phpcbf/internal/logger"
	"github.com/bethropolis/phpcbf/internal/standard"
)

// Flags holds values parsed from command-line flags.
// Use pointers to distinguish between unset flags and zero-value flags.
type Flags struct {
	ConfigFilePath *string
	Version        *bool
	LogLevel       *string
	LogFilePath    *string
	Standard       *string
	Timeout        *time.Duration
	NoFixOnSave    *bool

	// Output modes, consumed by cmd/phpcbf directly.
	Write *bool
	Diff  *bool
	Clip  *bool
}

// DefineFlags sets up the command-line flags and associates them with the Flags struct fields.
func (f *Flags) DefineFlags() {
	f.ConfigFilePath = flag.String("config", "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", ConfigDirName, DefaultConfigFileName))
	f.Version = flag.Bool("version", false, "Show version information and exit")
	f.LogLevel = flag.String("loglevel", "", "Log level (debug, info, warn, error) - Overrides config file")
	f.LogFilePath = flag.String("logfile", "", "Path to write log file (use '-' for stderr) - Overrides config file")
	f.Standard = flag.String("standard", "", "Coding standard to pass to phpcbf - Overrides config file")
	f.Timeout = flag.Duration("timeout", 0, "Formatter timeout (e.g. 10s) - Overrides config file")
	f.NoFixOnSave = flag.Bool("no-fix-on-save", false, "Disable automatic fixing on save events")
	f.Write = flag.Bool("write", false, "Write the fixed content back to the file instead of stdout")
	f.Diff = flag.Bool("diff", false, "Print the edit region as a styled diff instead of the content")
	f.Clip = flag.Bool("clip", false, "Copy the fixed content to the system clipboard")
}

// ParseFlags parses the defined command-line flags into the Flags struct.
// It returns the remaining non-flag arguments (the file path).
func (f *Flags) ParseFlags() []string {
	f.DefineFlags()
	flag.Parse()
	return flag.Args()
}

// ApplyOverrides updates the Config struct with values from flags *if* they were set.
func (f *Flags) ApplyOverrides(cfg *Config) {
	// Visit only processes flags that were actually set.
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "loglevel":
			if f.LogLevel != nil && *f.LogLevel != "" {
				logger.Debugf("config: log level from flag: %s", *f.LogLevel)
				cfg.Logger.Level = *f.LogLevel
			}
		case "logfile":
			if f.LogFilePath != nil {
				cfg.Logger.File = *f.LogFilePath
			}
		case "standard":
			if f.Standard != nil && *f.Standard != "" {
				cfg.Standard = standard.Standard{Name: *f.Standard}
			}
		case "timeout":
			if f.Timeout != nil && *f.Timeout > 0 {
				cfg.Timeout = Duration{*f.Timeout}
			}
		case "no-fix-on-save":
			if f.NoFixOnSave != nil && *f.NoFixOnSave {
				cfg.FixOnSave = false
			}
		}
	})
}
