package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/glorpus-work/yumsync/internal/logger"
	"github.com/glorpus-work/yumsync/pkg/config"
	"github.com/glorpus-work/yumsync/pkg/fetch"
)

// Package-level flag bindings set up by the root command.
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
)

// loadConfig resolves the config path, loads the file and initializes the
// logger from its settings.
func loadConfig() (*config.Config, error) {
	path := ""
	if ConfigPath != nil {
		path = *ConfigPath
	}
	if path == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	level := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	logger.InitLogger(level, logger.OutputFormat(cfg.Settings.OutputFormat))

	if NoColor != nil && *NoColor {
		color.NoColor = true
	}

	return cfg, nil
}

// buildClient creates the HTTP client every command shares.
func buildClient(cfg *config.Config) *fetch.HTTPClient {
	return fetch.NewHTTPClient(cfg.Settings.HTTPTimeout(), "yumsync/"+Version)
}

// selectRepos returns the repositories matching the given names, whether
// enabled or not, or all enabled repositories when names is empty.
func selectRepos(cfg *config.Config, names []string) ([]*config.RepositoryConfig, error) {
	if len(names) == 0 {
		return cfg.EnabledRepositories(), nil
	}

	repos := make([]*config.RepositoryConfig, 0, len(names))
	for _, name := range names {
		repo := cfg.FindRepository(name)
		if repo == nil {
			return nil, fmt.Errorf("unknown repository %q", name)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// newTable creates a stdout table with the given headers.
func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(os.Stdout)
	table.Header(headers)
	return table
}
