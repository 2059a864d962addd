package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/yumsync/pkg/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.Repositories)
	assert.Equal(t, 24*time.Hour, cfg.Settings.SyncInterval())
	assert.Equal(t, 5, cfg.Settings.MaxConcurrentDownloads)
	assert.Equal(t, 300*time.Second, cfg.Settings.HTTPTimeout())
	assert.Equal(t, "info", cfg.Settings.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromReader(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		expectError error
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "full config",
			yaml: `
repositories:
  - name: centos-7-os
    url: https://vault.centos.org/7.9.2009/os/x86_64
    local_path: /srv/mirror/centos/7/os
    enabled: true
  - name: docker-ce
    url: https://download.docker.com/linux/centos/7/x86_64/stable
    local_path: /srv/mirror/docker-ce
    enabled: false
settings:
  sync_interval_seconds: 3600
  max_concurrent_downloads: 3
  http_timeout_seconds: 120
  log_level: debug
`,
			check: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.Repositories, 2)
				assert.Equal(t, "centos-7-os", cfg.Repositories[0].Name)
				assert.Equal(t, time.Hour, cfg.Settings.SyncInterval())
				assert.Equal(t, 3, cfg.Settings.MaxConcurrentDownloads)
				assert.Equal(t, 2*time.Minute, cfg.Settings.HTTPTimeout())
				require.Len(t, cfg.EnabledRepositories(), 1)
				assert.Equal(t, "centos-7-os", cfg.EnabledRepositories()[0].Name)
			},
		},
		{
			name: "defaults applied",
			yaml: `
repositories:
  - name: epel
    url: https://dl.fedoraproject.org/pub/epel/7/x86_64
    local_path: /srv/mirror/epel
    enabled: true
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(DefaultSyncIntervalSeconds), cfg.Settings.SyncIntervalSeconds)
				assert.Equal(t, DefaultMaxConcurrentDownloads, cfg.Settings.MaxConcurrentDownloads)
				assert.Equal(t, int64(DefaultHTTPTimeoutSeconds), cfg.Settings.HTTPTimeoutSeconds)
			},
		},
		{
			name: "missing local path rejected",
			yaml: `
repositories:
  - name: epel
    url: https://dl.fedoraproject.org/pub/epel/7/x86_64
    enabled: true
`,
			expectError: errors.ErrConfigValidation,
		},
		{
			name: "duplicate names rejected",
			yaml: `
repositories:
  - name: epel
    url: https://a.example.com
    local_path: /srv/a
  - name: epel
    url: https://b.example.com
    local_path: /srv/b
`,
			expectError: errors.ErrConfigValidation,
		},
		{
			name:        "malformed yaml",
			yaml:        "repositories: [\n",
			expectError: errors.ErrConfigParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfigFromReader(strings.NewReader(tt.yaml))
			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg := DefaultConfig()
	cfg.Repositories = []*RepositoryConfig{
		{
			Name:      "centos-7-updates",
			URL:       "https://vault.centos.org/7.9.2009/updates/x86_64",
			LocalPath: "/srv/mirror/centos/7/updates",
			Enabled:   true,
		},
	}
	cfg.Settings.MaxConcurrentDownloads = 8

	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Repositories[0], loaded.Repositories[0])
	assert.Equal(t, cfg.Settings, loaded.Settings)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestFindRepository(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Repositories = []*RepositoryConfig{
		{Name: "a", URL: "https://a", LocalPath: "/srv/a"},
		{Name: "b", URL: "https://b", LocalPath: "/srv/b"},
	}
	require.NotNil(t, cfg.FindRepository("b"))
	assert.Equal(t, "https://b", cfg.FindRepository("b").URL)
	assert.Nil(t, cfg.FindRepository("c"))
}
