package mirror

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/yumsync/pkg/config"
	"github.com/glorpus-work/yumsync/pkg/errors"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
	"github.com/glorpus-work/yumsync/pkg/rpmmd"
)

// Completeness is the result of checking a mirror tree against its own local
// primary index, without touching the network.
type Completeness struct {
	Present      int
	Missing      []string
	SizeMismatch []string
}

// Complete reports whether every listed package is present with the right size.
func (c *Completeness) Complete() bool {
	return len(c.Missing) == 0 && len(c.SizeMismatch) == 0
}

// CheckLocalCompleteness compares the packages listed by the local primary
// index with the files on disk. Packages failed in a previous cycle show up
// here as missing until a later cycle restores them.
func CheckLocalCompleteness(repo *config.RepositoryConfig) (*Completeness, error) {
	repomdPath := filepath.Join(repo.LocalPath, "repodata", "repomd.xml")
	md, err := rpmmd.ParseRepomdFile(repomdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrMetadataMissing, "repo %s", repo.Name)
		}
		return nil, err
	}

	href, ok := md.DataHref("primary")
	if !ok {
		return nil, errors.Wrapf(errors.ErrPrimaryMissing, "repo %s", repo.Name)
	}
	primaryPath, err := fsutil.SafeJoin(repo.LocalPath, filepath.FromSlash(href))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrPrimaryMissing, "repo %s: unsafe href %q", repo.Name, href)
	}

	packages, err := rpmmd.ParsePrimaryFile(primaryPath)
	if err != nil {
		return nil, err
	}

	result := &Completeness{}
	for _, pkg := range packages {
		target, err := fsutil.SafeJoin(repo.LocalPath, filepath.FromSlash(pkg.LocationHref))
		if err != nil {
			result.Missing = append(result.Missing, pkg.LocationHref)
			continue
		}
		info, err := os.Stat(target)
		switch {
		case err != nil:
			result.Missing = append(result.Missing, pkg.LocationHref)
		case info.Size() != pkg.PackageSize:
			result.SizeMismatch = append(result.SizeMismatch, pkg.LocationHref)
		default:
			result.Present++
		}
	}
	return result, nil
}
