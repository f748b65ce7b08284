// Package cfg is notefs's flattened configuration surface: one struct
// bound directly to the root command's flags via viper, the same
// shape the teacher's own cfg package uses (a single struct unmarshaled
// by viper after pflag binding) rather than hand-rolled flag parsing.
package cfg

import (
	"fmt"
	"time"

	"github.com/relfs/notefs/internal/logger"
	"github.com/spf13/pflag"
)

// Config is notefs's entire runtime configuration, bound from CLI
// flags (and, transitively, any environment variables viper picks up
// under the same keys).
type Config struct {
	MountPoint string `mapstructure:"-"`
	Database   string `mapstructure:"-"`

	InitDB     bool     `mapstructure:"init-db"`
	Timezone   string   `mapstructure:"timezone"`
	UserID     string   `mapstructure:"user-id"`
	Foreground bool     `mapstructure:"foreground"`
	MountOptions []string `mapstructure:"o"`

	Logging LoggingConfig `mapstructure:",squash"`
}

// LoggingConfig controls internal/logger's destination and verbosity.
type LoggingConfig struct {
	FilePath string `mapstructure:"log-file"`
	Format   string `mapstructure:"log-format"`
	Severity string `mapstructure:"log-severity"`
}

// DefaultTimezone is used when --timezone is empty or names a zone the
// tzdata on this system does not recognize.
const DefaultTimezone = "Australia/Sydney"

// BindFlags registers every notefs flag against fs, mirroring the
// teacher's cfg.BindFlags: flags are declared once here and bound by
// viper.BindPFlags in the command package, so RunE only ever reads the
// unmarshaled Config.
func BindFlags(fs *pflag.FlagSet) error {
	fs.Bool("init-db", false, "Install the schema on startup; required the first time a database path is used.")
	fs.String("timezone", DefaultTimezone, "IANA timezone name used to render note and folder timestamps.")
	fs.String("user-id", "", "Principal id that owns every folder and note visible through this mount.")
	fs.Bool("foreground", false, "Run without forking into the background.")
	fs.StringArrayP("o", "o", nil, "Additional mount option, in \"key=value\" or \"key\" form. May be repeated.")
	fs.String("log-file", "", "Path to a log file; empty logs to stderr.")
	fs.String("log-format", "json", "Log format: \"text\" or \"json\".")
	fs.String("log-severity", "INFO", "Minimum severity logged: TRACE, DEBUG, INFO, WARNING, ERROR, or OFF.")
	return nil
}

// Validate enforces the invariants BindFlags's defaults alone cannot:
// a principal is mandatory, and an unrecognized timezone is corrected
// to the default rather than rejected outright (spec'd as a warning,
// not a startup failure).
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("cfg: --user-id is required")
	}
	if _, err := time.LoadLocation(c.Timezone); c.Timezone == "" || err != nil {
		logger.Warnf("cfg: unrecognized timezone %q; falling back to %s", c.Timezone, DefaultTimezone)
		c.Timezone = DefaultTimezone
	}
	return nil
}

// Location resolves the configured timezone to a *time.Location,
// assuming Validate has already normalized an invalid name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return loc
}
