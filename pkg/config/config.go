// Package config provides configuration management for the yumsync mirror
// tool. It handles loading, validating, and saving the YAML configuration
// that describes the mirrored repositories and the sync engine settings, and
// provides sensible defaults when no configuration file exists.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/yumsync/pkg/errors"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	// Mirrored repositories, processed in configuration order.
	Repositories []*RepositoryConfig `yaml:"repositories"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// RepositoryConfig describes one mirrored repository.
type RepositoryConfig struct {
	Name string `yaml:"name"`
	// URL is the upstream repository root, the directory containing repodata/.
	URL string `yaml:"url"`
	// LocalPath is the directory holding the local mirror tree.
	LocalPath string `yaml:"local_path"`
	Enabled   bool   `yaml:"enabled"`
}

// Settings represents general application settings. Intervals are plain
// seconds in the file; use the accessors for durations.
type Settings struct {
	// SyncIntervalSeconds is the pause between cycles in serve mode.
	SyncIntervalSeconds int64 `yaml:"sync_interval_seconds"`

	// MaxConcurrentDownloads bounds in-flight package downloads per repo.
	MaxConcurrentDownloads int `yaml:"max_concurrent_downloads"`

	// HTTPTimeoutSeconds is the total per-request timeout.
	HTTPTimeoutSeconds int64 `yaml:"http_timeout_seconds"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug
}

// SyncInterval returns the serve-mode interval as a duration.
func (s Settings) SyncInterval() time.Duration {
	return time.Duration(s.SyncIntervalSeconds) * time.Second
}

// HTTPTimeout returns the per-request timeout as a duration.
func (s Settings) HTTPTimeout() time.Duration {
	return time.Duration(s.HTTPTimeoutSeconds) * time.Second
}

// Default configuration values.
const (
	// DefaultSyncIntervalSeconds is one day.
	DefaultSyncIntervalSeconds = 86400

	// DefaultHTTPTimeoutSeconds is the default timeout for HTTP requests.
	DefaultHTTPTimeoutSeconds = 300

	// DefaultMaxConcurrentDownloads is the default download parallelism.
	DefaultMaxConcurrentDownloads = 5

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults and no
// repositories.
func DefaultConfig() *Config {
	return &Config{
		Repositories: []*RepositoryConfig{},
		Settings: Settings{
			SyncIntervalSeconds:    DefaultSyncIntervalSeconds,
			MaxConcurrentDownloads: DefaultMaxConcurrentDownloads,
			HTTPTimeoutSeconds:     DefaultHTTPTimeoutSeconds,
			OutputFormat:           "text",
			LogLevel:               "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Settings.SyncIntervalSeconds <= 0 {
		c.Settings.SyncIntervalSeconds = DefaultSyncIntervalSeconds
	}
	if c.Settings.MaxConcurrentDownloads <= 0 {
		c.Settings.MaxConcurrentDownloads = DefaultMaxConcurrentDownloads
	}
	if c.Settings.HTTPTimeoutSeconds <= 0 {
		c.Settings.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = "text"
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
}

// SaveConfig saves configuration to a file, atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to encode config")
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateRepositories(c.Repositories); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateRepositories(repos []*RepositoryConfig) error {
	seen := make(map[string]bool)
	for i, repo := range repos {
		if repo.Name == "" {
			return errors.Wrapf(errors.ErrRepoConfig, "repository %d: name is empty", i)
		}
		if repo.URL == "" {
			return errors.Wrapf(errors.ErrRepoConfig, "repository %q: url is empty", repo.Name)
		}
		if repo.LocalPath == "" {
			return errors.Wrapf(errors.ErrRepoConfig, "repository %q: local_path is empty", repo.Name)
		}
		if seen[repo.Name] {
			return errors.Wrapf(errors.ErrRepoConfig, "repository %q: duplicate name", repo.Name)
		}
		seen[repo.Name] = true
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeoutSeconds < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "http_timeout_seconds cannot be negative")
	}
	if s.MaxConcurrentDownloads < 1 {
		return errors.Wrap(errors.ErrConfigValidation, "max_concurrent_downloads must be at least 1")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid output format %q", s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q", s.LogLevel)
	}
	return nil
}

// FindRepository returns the repository with the given name, or nil.
func (c *Config) FindRepository(name string) *RepositoryConfig {
	for _, repo := range c.Repositories {
		if repo.Name == name {
			return repo
		}
	}
	return nil
}

// EnabledRepositories returns the enabled repositories in configuration order.
func (c *Config) EnabledRepositories() []*RepositoryConfig {
	out := make([]*RepositoryConfig, 0, len(c.Repositories))
	for _, repo := range c.Repositories {
		if repo.Enabled {
			out = append(out, repo)
		}
	}
	return out
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine user config directory")
	}
	return filepath.Join(configDir, "yumsync", "config.yaml"), nil
}
