// Package config provides YAML-based configuration loading for Windstorm.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Windstorm configuration, loaded from windstorm.yaml.
type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	AMQP    AMQPConfig    `yaml:"amqp"`
	Nation  string        `yaml:"nation"`
	DB      DBConfig      `yaml:"db"`
}

// DiscordConfig holds Discord credentials.
type DiscordConfig struct {
	Token string `yaml:"token"`
}

// AMQPConfig holds connection settings for the event broker.
type AMQPConfig struct {
	URL string `yaml:"url"`
}

// DBConfig holds settings for the local SQLite store.
type DBConfig struct {
	Path string `yaml:"path"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. Secrets may be
// supplied through the environment instead of the file: WINDSTORM_TOKEN and
// WINDSTORM_AMQP_URL override the corresponding fields when set.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides secret-bearing fields from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("WINDSTORM_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("WINDSTORM_AMQP_URL"); v != "" {
		c.AMQP.URL = v
	}
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.DB.Path == "" {
		c.DB.Path = "windstorm.db"
	}
}

// validate checks that all required fields are present.
func (c *Config) validate() error {
	var errs []string
	if c.Discord.Token == "" {
		errs = append(errs, "discord.token is required (or WINDSTORM_TOKEN)")
	}
	if c.AMQP.URL == "" {
		errs = append(errs, "amqp.url is required (or WINDSTORM_AMQP_URL)")
	}
	if c.Nation == "" {
		errs = append(errs, "nation is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
