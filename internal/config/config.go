// Package config provides configuration loading and structs for the biokgvec server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Models     ModelsConfig     `yaml:"models"`
	Ontologies []OntologyConfig `yaml:"ontologies"`
	Query      QueryConfig      `yaml:"query"`
	Downloads  DownloadsConfig  `yaml:"downloads"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string          `yaml:"host"`
	Port           int             `yaml:"port"`
	RequestTimeout int             `yaml:"request_timeout"` // seconds
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the token bucket applied to every request. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// ModelsConfig holds the models directory and load settings.
type ModelsConfig struct {
	Directory   string `yaml:"directory"`
	Parallelism int    `yaml:"parallelism"`
	Suggestions *bool  `yaml:"suggestions"`
}

// SuggestionsOrDefault returns whether to build label suggestion indexes; defaults to true when unset.
func (m *ModelsConfig) SuggestionsOrDefault() bool {
	if m.Suggestions != nil {
		return *m.Suggestions
	}
	return true
}

// OntologyConfig maps an ontology prefix to the base IRI of its identifiers.
type OntologyConfig struct {
	Prefix    string `yaml:"prefix"`
	Namespace string `yaml:"namespace"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	DefaultTopN int `yaml:"default_top_n"`
}

// DownloadsConfig holds the root of the versioned release folders served for download.
type DownloadsConfig struct {
	Directory string `yaml:"directory"`
}

// ArtifactsConfig locates an S3-compatible bucket mirrored into the models directory.
type ArtifactsConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	SyncOnStart     bool   `yaml:"sync_on_start"`
}

// Enabled reports whether an artifact source is configured.
func (a *ArtifactsConfig) Enabled() bool {
	return a.Endpoint != "" && a.Bucket != ""
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnabledOrDefault returns whether to serve metrics; defaults to true when unset.
func (m *MetricsConfig) EnabledOrDefault() bool {
	if m.Enabled != nil {
		return *m.Enabled
	}
	return true
}

// Namespaces returns the ontology prefix to namespace map.
func (c *Config) Namespaces() map[string]string {
	ns := make(map[string]string, len(c.Ontologies))
	for _, o := range c.Ontologies {
		ns[o.Prefix] = o.Namespace
	}
	return ns
}

// HasOntology reports whether prefix is configured.
func (c *Config) HasOntology(prefix string) bool {
	for _, o := range c.Ontologies {
		if o.Prefix == prefix {
			return true
		}
	}
	return false
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Models.Directory = expandPath(cfg.Models.Directory, configDir)
	cfg.Downloads.Directory = expandPath(cfg.Downloads.Directory, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	seen := make(map[string]bool, len(c.Ontologies))
	for _, o := range c.Ontologies {
		if o.Prefix == "" || strings.Contains(o.Prefix, "_") {
			return fmt.Errorf("invalid ontology prefix %q", o.Prefix)
		}
		if seen[o.Prefix] {
			return fmt.Errorf("duplicate ontology prefix %q", o.Prefix)
		}
		seen[o.Prefix] = true
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. "" stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
