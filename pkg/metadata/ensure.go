package metadata

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/yumsync/internal/logger"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
	"github.com/glorpus-work/yumsync/pkg/rpmmd"
)

// Ensure leaves localRoot with client-usable repodata. Upstream-supplied
// metadata wins: when repomd.xml parses and every referenced file exists,
// nothing is touched. Anything less triggers a full regeneration.
func Ensure(localRoot, repoName string) error {
	if repomdIsUsable(localRoot, repoName) {
		return nil
	}

	gen := &Generator{LocalRoot: localRoot, RepoName: repoName}
	return gen.Generate()
}

func repomdIsUsable(localRoot, repoName string) bool {
	repomdPath := filepath.Join(localRoot, "repodata", "repomd.xml")
	md, err := rpmmd.ParseRepomdFile(repomdPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnfWithFields(logger.Fields{"repo": repoName}, "unreadable repomd.xml: %v", err)
		}
		return false
	}

	for _, data := range md.Data {
		href := data.Location.Href
		if href == "" {
			continue
		}
		target, err := fsutil.SafeJoin(localRoot, filepath.FromSlash(href))
		if err != nil {
			logger.WarnfWithFields(logger.Fields{"repo": repoName}, "repomd references unsafe href %q", href)
			return false
		}
		if _, err := os.Stat(target); err != nil {
			logger.WarnfWithFields(logger.Fields{"repo": repoName}, "repomd references missing file %s", href)
			return false
		}
	}
	return true
}
