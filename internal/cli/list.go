package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/yumsync/pkg/fsutil"
	"github.com/glorpus-work/yumsync/pkg/rpmmd"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list REPO",
		Short: "List the packages a mirror currently carries",
		Long: `Parse the repository's local primary index and list the packages it
describes, newest version first within each name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runList(args[0])
		},
	}
	return cmd
}

func runList(name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo := cfg.FindRepository(name)
	if repo == nil {
		return fmt.Errorf("unknown repository %q", name)
	}

	md, err := rpmmd.ParseRepomdFile(filepath.Join(repo.LocalPath, "repodata", "repomd.xml"))
	if err != nil {
		return fmt.Errorf("no usable metadata for %s (run sync first): %w", name, err)
	}
	href, ok := md.DataHref("primary")
	if !ok {
		return fmt.Errorf("repository %s has no primary index", name)
	}
	primaryPath, err := fsutil.SafeJoin(repo.LocalPath, filepath.FromSlash(href))
	if err != nil {
		return fmt.Errorf("repository %s references an unsafe primary href", name)
	}

	packages, err := rpmmd.ParsePrimaryFile(primaryPath)
	if err != nil {
		return err
	}

	sortPackages(packages)

	table := newTable([]string{"Name", "Version", "Release", "Arch", "Size", "On Disk"})
	for _, pkg := range packages {
		onDisk := "no"
		if target, err := fsutil.SafeJoin(repo.LocalPath, filepath.FromSlash(pkg.LocationHref)); err == nil {
			if _, err := os.Stat(target); err == nil {
				onDisk = "yes"
			}
		}
		_ = table.Append([]string{pkg.Name, pkg.Version, pkg.Release, pkg.Arch, fsutil.HumanSize(pkg.PackageSize), onDisk})
	}
	return table.Render()
}

// sortPackages orders by name, then newest version first. RPM version
// strings usually parse as loose versions; the ones that don't are compared
// lexically.
func sortPackages(packages []*rpmmd.Package) {
	sort.SliceStable(packages, func(i, j int) bool {
		a, b := packages[i], packages[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		va, errA := goversion.NewVersion(a.Version)
		vb, errB := goversion.NewVersion(b.Version)
		if errA == nil && errB == nil && !va.Equal(vb) {
			return vb.LessThan(va)
		}
		if a.Version != b.Version {
			return a.Version > b.Version
		}
		return a.Release > b.Release
	})
}
