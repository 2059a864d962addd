package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yumsync/internal/logger"
	"github.com/glorpus-work/yumsync/pkg/orchestrator"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Mirror continuously at the configured interval",
		Long: `Run a mirror cycle immediately, then repeat at the configured sync
interval until interrupted. A cancellation makes in-flight downloads fail and
ends the running cycle before the next repository; disk work already under
way for the current repository (package verification, local copies,
metadata upkeep) runs to completion.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "override the configured sync interval")
	return cmd
}

func runServe(cmd *cobra.Command, interval time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = cfg.Settings.SyncInterval()
	}

	orch := orchestrator.New(cfg, buildClient(cfg))
	ctx := cmd.Context()

	logger.Infof("mirroring %d repositories every %s", len(cfg.EnabledRepositories()), interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		results := orch.RunCycle(ctx)
		renderCycleResults(results)

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}
