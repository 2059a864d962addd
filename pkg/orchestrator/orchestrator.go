// Package orchestrator drives one sync cycle across every configured
// repository: change detection, selective sync, metadata upkeep. Failures
// are confined to the repository they occur in; the cycle always runs to
// the end of the list.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/glorpus-work/yumsync/internal/logger"
	"github.com/glorpus-work/yumsync/pkg/config"
	"github.com/glorpus-work/yumsync/pkg/fetch"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
	"github.com/glorpus-work/yumsync/pkg/metadata"
	"github.com/glorpus-work/yumsync/pkg/mirror"
	"github.com/glorpus-work/yumsync/pkg/pkgcache"
)

// RepoResult is the outcome of one repository within a cycle.
type RepoResult struct {
	Name string
	// Synced is false when the change detector skipped the repository.
	Synced  bool
	Report  *mirror.Report
	DirSize int64
	Err     error
}

// Orchestrator runs sync cycles over a fixed configuration.
type Orchestrator struct {
	cfg    *config.Config
	client fetch.Client
}

// New creates an orchestrator for the given configuration and client.
func New(cfg *config.Config, client fetch.Client) *Orchestrator {
	return &Orchestrator{cfg: cfg, client: client}
}

// RunCycle processes every enabled repository once, in configuration order.
// The content cache is built once, up front, across all local roots so a
// later repository can reuse files an earlier one just fetched.
func (o *Orchestrator) RunCycle(ctx context.Context) []RepoResult {
	repos := o.cfg.EnabledRepositories()

	roots := make([]string, 0, len(repos))
	for _, repo := range repos {
		roots = append(roots, repo.LocalPath)
	}
	cache := pkgcache.BuildIndex(roots)
	logger.Infof("content cache holds %d packages across %d roots", cache.Len(), len(roots))

	detector := mirror.NewDetector(o.client)
	syncer := mirror.NewSyncer(o.client, cache, o.cfg.Settings.MaxConcurrentDownloads)

	results := make([]RepoResult, 0, len(repos))
	for _, repo := range repos {
		if ctx.Err() != nil {
			logger.Warnf("cycle cancelled before repo %s", repo.Name)
			break
		}
		results = append(results, o.processRepo(ctx, repo, detector, syncer))
	}
	return results
}

// processRepo runs detector, syncer and metadata upkeep for one repository.
// Nothing that happens in here may take the rest of the cycle down.
func (o *Orchestrator) processRepo(ctx context.Context, repo *config.RepositoryConfig, detector *mirror.Detector, syncer *mirror.Syncer) (result RepoResult) {
	result = RepoResult{Name: repo.Name}

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("repo %s panicked: %v", repo.Name, r)
			logger.Errorf("%v", result.Err)
		}
		if size, err := fsutil.DirSize(repo.LocalPath); err == nil {
			result.DirSize = size
		}
	}()

	localRepomd := filepath.Join(repo.LocalPath, "repodata", "repomd.xml")
	if !detector.HasChanged(ctx, mirror.RepomdURL(repo.URL), localRepomd) {
		logger.InfofWithFields(logger.Fields{"repo": repo.Name}, "upstream unchanged, skipping")
	} else {
		result.Synced = true
		report, err := syncer.Sync(ctx, repo)
		result.Report = report
		if err != nil {
			result.Err = err
			logger.ErrorfWithFields(logger.Fields{"repo": repo.Name}, "sync failed: %v", err)
		}
	}

	// Metadata upkeep runs even after a partial sync so clients always see
	// a consistent repodata/.
	if err := metadata.Ensure(repo.LocalPath, repo.Name); err != nil {
		logger.ErrorfWithFields(logger.Fields{"repo": repo.Name}, "metadata upkeep failed: %v", err)
		if result.Err == nil {
			result.Err = err
		}
	}

	return result
}
