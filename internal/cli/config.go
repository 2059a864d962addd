package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yumsync/pkg/config"
)

// TabWidth is the padding used for tabwriter output.
const TabWidth = 2

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and initialize the yumsync configuration file",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
	)
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	return cmd
}

func runConfigShow(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SETTING\tVALUE")
	_, _ = fmt.Fprintf(tw, "sync_interval\t%s\n", cfg.Settings.SyncInterval())
	_, _ = fmt.Fprintf(tw, "max_concurrent_downloads\t%d\n", cfg.Settings.MaxConcurrentDownloads)
	_, _ = fmt.Fprintf(tw, "http_timeout\t%s\n", cfg.Settings.HTTPTimeout())
	_, _ = fmt.Fprintf(tw, "log_level\t%s\n", cfg.Settings.LogLevel)
	_, _ = fmt.Fprintf(tw, "output_format\t%s\n", cfg.Settings.OutputFormat)
	_ = tw.Flush()

	if len(cfg.Repositories) == 0 {
		fmt.Println("\nno repositories configured")
		return nil
	}

	table := newTable([]string{"Name", "URL", "Local Path", "Enabled"})
	for _, repo := range cfg.Repositories {
		enabled := "no"
		if repo.Enabled {
			enabled = "yes"
		}
		_ = table.Append([]string{repo.Name, repo.URL, repo.LocalPath, enabled})
	}
	fmt.Println()
	return table.Render()
}

func runConfigInit(force bool) error {
	path := ""
	if ConfigPath != nil {
		path = *ConfigPath
	}
	if path == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	cfg.Repositories = []*config.RepositoryConfig{
		{
			Name:      "centos-7-os",
			URL:       "https://vault.centos.org/7.9.2009/os/x86_64",
			LocalPath: "/srv/mirror/centos/7/os/x86_64",
			Enabled:   false,
		},
		{
			Name:      "docker-ce-stable",
			URL:       "https://download.docker.com/linux/centos/7/x86_64/stable",
			LocalPath: "/srv/mirror/docker-ce/7/x86_64/stable",
			Enabled:   false,
		},
		{
			Name:      "epel-7",
			URL:       "https://dl.fedoraproject.org/pub/epel/7/x86_64",
			LocalPath: "/srv/mirror/epel/7/x86_64",
			Enabled:   false,
		},
	}

	if err := cfg.SaveConfig(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
