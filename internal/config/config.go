package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"sarcasm-review/internal/classifier"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the binaries look for configuration.
const DefaultPath = "configs/config.yml"

// Config holds application configuration
type Config struct {
	Input struct {
		Path   string `yaml:"path"`
		Sender string `yaml:"sender"` // Only messages from this sender are analysed
	} `yaml:"input"`

	Output struct {
		Dir              string `yaml:"dir"`
		HybridReview     string `yaml:"hybrid_review"`
		ReadableAnalysis string `yaml:"readable_analysis"`
		EmojiSamples     string `yaml:"emoji_samples"`
		ReadableReview   string `yaml:"readable_review"`
	} `yaml:"output"`

	Rules struct {
		Path string `yaml:"path"` // Optional YAML rule tables; built-in tables when empty
	} `yaml:"rules"`

	Review struct {
		ShuffleSeed   uint64 `yaml:"shuffle_seed"`
		TopEmoji      int    `yaml:"top_emoji"`
		PreviewCount  int    `yaml:"preview_count"`
		PreviewLength int    `yaml:"preview_length"`
	} `yaml:"review"`

	Database struct {
		Type string `yaml:"type"` // "sqlite", "postgres" or "none"
		Path string `yaml:"path"` // SQLite path or PostgreSQL URL
	} `yaml:"database"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	// Auth protects the API's write endpoints. It is off when Secret is empty.
	Auth struct {
		Secret    string        `yaml:"secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
		Reviewers []Reviewer    `yaml:"reviewers"`
	} `yaml:"auth"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`
}

// Reviewer is an API account. PasswordHash is an argon2id hash as printed
// by cmd/hash-password.
type Reviewer struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// LoadConfig loads configuration from a YAML file. A missing file is not an
// error: the binaries must run with no arguments, so defaults are returned.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	default:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	config.setDefaults()

	config.Database.Path = os.ExpandEnv(config.Database.Path)
	config.Input.Path = os.ExpandEnv(config.Input.Path)
	config.Auth.Secret = os.ExpandEnv(config.Auth.Secret)

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Input.Path == "" {
		c.Input.Path = "Copy of pi-user-history.json"
	}
	if c.Input.Sender == "" {
		c.Input.Sender = "AI"
	}

	if c.Output.HybridReview == "" {
		c.Output.HybridReview = "pi_sarcasm_hybrid_review.csv"
	}
	if c.Output.ReadableAnalysis == "" {
		c.Output.ReadableAnalysis = "pi_sarcasm_readable_analysis.csv"
	}
	if c.Output.EmojiSamples == "" {
		c.Output.EmojiSamples = "pi_emoji_messages_readable.csv"
	}
	if c.Output.ReadableReview == "" {
		c.Output.ReadableReview = "pi_sarcasm_readable_review.csv"
	}

	if c.Review.ShuffleSeed == 0 {
		c.Review.ShuffleSeed = 42
	}
	if c.Review.TopEmoji == 0 {
		c.Review.TopEmoji = 10
	}
	if c.Review.PreviewCount == 0 {
		c.Review.PreviewCount = 3
	}
	if c.Review.PreviewLength == 0 {
		c.Review.PreviewLength = 150
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Path == "" && c.Database.Type == "sqlite" {
		c.Database.Path = "./data/review.db"
	}

	if c.Server.Port == "" {
		c.Server.Port = "8003"
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// PersistenceEnabled reports whether runs are recorded in a database.
func (c *Config) PersistenceEnabled() bool {
	return c.Database.Type != "none" && c.Database.Path != ""
}

// AuthEnabled reports whether API write endpoints require a token.
func (c *Config) AuthEnabled() bool {
	return c.Auth.Secret != ""
}

// ReviewerHashes maps reviewer names to password hashes.
func (c *Config) ReviewerHashes() map[string]string {
	m := make(map[string]string, len(c.Auth.Reviewers))
	for _, r := range c.Auth.Reviewers {
		m[r.Name] = r.PasswordHash
	}
	return m
}

// OutputPath resolves an output file name against Output.Dir.
func (c *Config) OutputPath(name string) string {
	if c.Output.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}

// LoadRules returns the classifier rule tables. With an empty path the
// built-in tables are returned. Keys missing from the file keep their
// built-in values.
func LoadRules(path string) (classifier.Rules, error) {
	rules := classifier.DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return classifier.Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return classifier.Rules{}, fmt.Errorf("failed to decode rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return classifier.Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}
