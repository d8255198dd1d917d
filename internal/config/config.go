package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	yml "gopkg.in/yaml.v2"

	"github.com/ivlev/recipetool/internal/curve"
)

// FileName is the configuration file looked up in the working directory
const FileName = "recipetool.yml"

type Config struct {
	AutoEase      string  `koanf:"auto_ease" yaml:"auto_ease"`
	AutoShape     string  `koanf:"auto_shape" yaml:"auto_shape"`
	AutoSteps     int     `koanf:"auto_steps" yaml:"auto_steps"`
	AutoDuration  float64 `koanf:"auto_duration" yaml:"auto_duration"`
	AutoBuffer    float64 `koanf:"auto_buffer" yaml:"auto_buffer"`
	RecipeVersion int     `koanf:"recipe_version" yaml:"recipe_version"`
	Verbose       bool    `koanf:"verbose" yaml:"verbose"`
	Processors    string  `koanf:"processors" yaml:"processors"` // "max", "half" or a count
	Tnt           string  `koanf:"tnt" yaml:"tnt"`               // Vendor tool executable
	Spinner       bool    `koanf:"spinner" yaml:"spinner"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		AutoEase:      "in_out",
		AutoShape:     "quad",
		AutoSteps:     12,
		AutoDuration:  10.0,
		AutoBuffer:    0.0001,
		RecipeVersion: 5,
		Verbose:       false,
		Processors:    "max",
		Tnt:           "tnt",
		Spinner:       true,
	}
}

// Load overlays the YAML file at path on the defaults. A missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// Validate performs sanity checks on the values
func (c *Config) Validate() error {
	if c.RecipeVersion < 1 || c.RecipeVersion > 5 {
		return fmt.Errorf("recipe_version must be between 1 and 5, got %d", c.RecipeVersion)
	}
	if c.AutoSteps <= 0 {
		return fmt.Errorf("auto_steps must be positive, got %d", c.AutoSteps)
	}
	if c.AutoDuration <= 0 {
		return fmt.Errorf("auto_duration must be positive, got %g", c.AutoDuration)
	}
	if c.AutoBuffer < 0 {
		return fmt.Errorf("auto_buffer must not be negative, got %g", c.AutoBuffer)
	}
	if _, err := curve.Lookup(c.AutoEase, c.AutoShape); err != nil {
		return err
	}
	return nil
}

// Encode writes the configuration as YAML
func (c *Config) Encode(w io.Writer) error {
	return yml.NewEncoder(w).Encode(c)
}

// Write saves the configuration to path
func (c *Config) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Encode(f)
}
