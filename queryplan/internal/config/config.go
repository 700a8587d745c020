// Package config handles queryplan's runtime tunables.
//
// These are never secrets - just depth limits, alias length, and a log
// level - but the "env:" override convention is kept anyway so a
// deployment can flip log_level with an environment variable and never
// touch queryplan.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the complete runtime configuration, loaded from
// queryplan.toml in the given directory.
type Config struct {
	// MaxFilterDepth bounds filter/path recursion (spec §5).
	MaxFilterDepth int `toml:"max_filter_depth"`
	// AliasLength is the length of generated join aliases (spec §4.1).
	AliasLength int `toml:"alias_length"`
	// LogLevel is a logrus level name: "debug", "warn", "error", ...
	// Supports an "env:VAR_NAME" value, resolved by ResolveLogLevel.
	LogLevel string `toml:"log_level"`
}

// Load reads queryplan.toml from dir, falling back to defaultConfig when
// the file doesn't exist.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "queryplan.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaultConfig(), nil
	}

	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	c.applyDefaults()
	return &c, nil
}

// defaultConfig returns the configuration used when no queryplan.toml is
// present.
func defaultConfig() *Config {
	return &Config{
		MaxFilterDepth: 10,
		AliasLength:    5,
		LogLevel:       "warn",
	}
}

// applyDefaults fills in zero-valued fields with defaultConfig's values.
func (c *Config) applyDefaults() {
	d := defaultConfig()
	if c.MaxFilterDepth == 0 {
		c.MaxFilterDepth = d.MaxFilterDepth
	}
	if c.AliasLength == 0 {
		c.AliasLength = d.AliasLength
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// ResolveLogLevel resolves an "env:VAR_NAME"-prefixed LogLevel to its
// environment value, falling back to the default level when that variable
// is unset - QUERYPLAN_LOG_LEVEL is the one callers typically set.
func (c *Config) ResolveLogLevel() string {
	const prefix = "env:"
	if len(c.LogLevel) > len(prefix) && c.LogLevel[:len(prefix)] == prefix {
		if v := os.Getenv(c.LogLevel[len(prefix):]); v != "" {
			return v
		}
		return defaultConfig().LogLevel
	}
	return c.LogLevel
}
