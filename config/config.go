// Package config loads the optional dsv.yaml tool configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory and in the
// user config directory.
const FileName = "dsv.yaml"

type TinifyConfig struct {
	// Endpoint overrides the compression API base URL. Empty means the
	// public TinyPNG endpoint.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Config holds optional defaults; the zero value is a valid configuration.
type Config struct {
	Input  string       `yaml:"input,omitempty"`
	Output string       `yaml:"output,omitempty"`
	Tinify TinifyConfig `yaml:"tinify,omitempty"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Tinify.Endpoint == "" {
		return nil
	}
	u, err := url.Parse(c.Tinify.Endpoint)
	if err != nil {
		return fmt.Errorf("tinify.endpoint %q is not a valid URL: %w", c.Tinify.Endpoint, err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("tinify.endpoint %q must be an absolute http(s) URL", c.Tinify.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("tinify.endpoint %q is missing a host", c.Tinify.Endpoint)
	}
	return nil
}

// LoadPrefer loads a config file using the following order:
//  1. the provided path if non-empty (missing is then an error),
//  2. ./dsv.yaml (current working directory),
//  3. user config dir: $XDG_CONFIG_HOME/dsv-scripts/dsv.yaml or the
//     platform equivalent (via os.UserConfigDir()).
//
// The toolkit runs fine without a config file, so if none is found a zero
// Config is returned rather than an error.
func LoadPrefer(preferred string) (*Config, error) {
	exists := func(p string) bool {
		if p == "" {
			return false
		}
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return true
		}
		return false
	}

	if preferred != "" {
		if !exists(preferred) {
			return nil, fmt.Errorf("config file %q not found", preferred)
		}
		return Load(preferred)
	}

	if exists(FileName) {
		return Load(FileName)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "dsv-scripts", FileName)
		if exists(p) {
			return Load(p)
		}
	}

	return &Config{}, nil
}
