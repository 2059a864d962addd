package cli

import (
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/yumsync/pkg/config"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
	"github.com/glorpus-work/yumsync/pkg/orchestrator"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [repo...]",
		Short: "Run one mirror cycle",
		Long: `Run one mirror cycle: check every enabled repository for upstream
changes, fetch new or corrupted packages, and keep the repodata usable.
With arguments, only the named repositories are processed.`,
		RunE: runSync,
	}
	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repos, err := selectRepos(cfg, args)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		// Naming a repository overrides its enabled flag.
		enabled := make([]*config.RepositoryConfig, 0, len(repos))
		for _, repo := range repos {
			clone := *repo
			clone.Enabled = true
			enabled = append(enabled, &clone)
		}
		repos = enabled
	}
	// Narrow the cycle to the selection while keeping the shared settings.
	cycleCfg := &config.Config{Repositories: repos, Settings: cfg.Settings}

	orch := orchestrator.New(cycleCfg, buildClient(cfg))
	results := orch.RunCycle(cmd.Context())

	renderCycleResults(results)
	return nil
}

func renderCycleResults(results []orchestrator.RepoResult) {
	table := newTable([]string{"Repository", "Status", "Network", "Local", "Failed", "Skipped", "Size"})

	okColor := color.New(color.FgGreen)
	badColor := color.New(color.FgRed)
	dimColor := color.New(color.FgHiBlack)

	for _, res := range results {
		status := dimColor.Sprint("unchanged")
		network, local, failed, skipped := "-", "-", "-", "-"

		if res.Synced && res.Report != nil {
			status = okColor.Sprint("synced")
			network = strconv.FormatInt(res.Report.Downloaded, 10)
			local = strconv.FormatInt(res.Report.LocalCopied, 10)
			skipped = strconv.FormatInt(res.Report.Skipped, 10)
			failed = strconv.FormatInt(res.Report.Failed, 10)
			if res.Report.Failed > 0 {
				failed = badColor.Sprint(failed)
			}
		}
		if res.Err != nil {
			status = badColor.Sprint("error")
		}

		_ = table.Append([]string{res.Name, status, network, local, failed, skipped, fsutil.HumanSize(res.DirSize)})
	}

	_ = table.Render()
}
