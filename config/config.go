// Package config loads the YAML configuration shared by the CLI tools and
// the decode service.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type BackendConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	AccessLog   bool   `yaml:"access_log,omitempty"`
	BodyLimitMB int    `yaml:"body_limit_mb,omitempty"`
	MainLogFile string `yaml:"main_log_file,omitempty"`
}

// DecodeConfig carries the decoder defaults: the cipher key pair for keyed
// streams and the virtual-loop settings.
type DecodeConfig struct {
	Key1        uint32 `yaml:"key1,omitempty"`
	Key2        uint32 `yaml:"key2,omitempty"`
	LoopCount   uint32 `yaml:"loop_count,omitempty"`
	LoopEnabled bool   `yaml:"loop_enabled,omitempty"`
	Float32     bool   `yaml:"float32,omitempty"`
}

type Config struct {
	Backend BackendConfig `yaml:"backend,omitempty"`
	Decode  DecodeConfig  `yaml:"decode,omitempty"`
	OutDir  string        `yaml:"out_dir,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Host:        "127.0.0.1",
			Port:        8010,
			LogLevel:    "info",
			BodyLimitMB: 64,
		},
	}
}

// Load reads a YAML config file, filling unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// HasKey reports whether a cipher key pair was configured; zero keys mean
// an unencrypted stream.
func (c DecodeConfig) HasKey() bool {
	return c.Key1 != 0 || c.Key2 != 0
}
