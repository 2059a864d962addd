package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yumsync/pkg/metadata"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "generate DIR",
		Short: "Validate or rebuild repodata for a mirror tree",
		Long: `Validate the repodata under DIR and rebuild a minimal primary.xml.gz and
repomd.xml from the RPM files on disk when it is missing or references
files that no longer exist. With --force the metadata is rebuilt
unconditionally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runGenerate(args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "rebuild even when the existing repodata is usable")
	return cmd
}

func runGenerate(dir string, force bool) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if force {
		gen := &metadata.Generator{LocalRoot: dir, RepoName: dir}
		return gen.Generate()
	}
	return metadata.Ensure(dir, dir)
}
