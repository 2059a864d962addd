package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/yumsync/pkg/mirror"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [repo...]",
		Short: "Check mirror completeness without fetching",
		Long: `Compare each repository's local primary index against the files on disk
and report missing or size-mismatched packages. No network access.`,
		RunE: runCheck,
	}
	return cmd
}

func runCheck(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repos, err := selectRepos(cfg, args)
	if err != nil {
		return err
	}

	table := newTable([]string{"Repository", "Present", "Missing", "Size Mismatch", "Status"})
	okColor := color.New(color.FgGreen)
	badColor := color.New(color.FgRed)

	incomplete := 0
	for _, repo := range repos {
		result, err := mirror.CheckLocalCompleteness(repo)
		if err != nil {
			incomplete++
			_ = table.Append([]string{repo.Name, "-", "-", "-", badColor.Sprintf("error: %v", err)})
			continue
		}

		status := okColor.Sprint("complete")
		if !result.Complete() {
			incomplete++
			status = badColor.Sprint("incomplete")
		}
		_ = table.Append([]string{
			repo.Name,
			strconv.Itoa(result.Present),
			strconv.Itoa(len(result.Missing)),
			strconv.Itoa(len(result.SizeMismatch)),
			status,
		})
	}
	_ = table.Render()

	if incomplete > 0 {
		return fmt.Errorf("%d of %d repositories incomplete", incomplete, len(repos))
	}
	return nil
}
