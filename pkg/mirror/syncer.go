package mirror

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/glorpus-work/yumsync/internal/logger"
	"github.com/glorpus-work/yumsync/pkg/config"
	"github.com/glorpus-work/yumsync/pkg/errors"
	"github.com/glorpus-work/yumsync/pkg/fetch"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
	"github.com/glorpus-work/yumsync/pkg/hash"
	"github.com/glorpus-work/yumsync/pkg/pkgcache"
	"github.com/glorpus-work/yumsync/pkg/rpmmd"
)

// Progress log cadence during the fetch phase.
const (
	networkLogEvery = 50
	copyLogEvery    = 100
)

// Syncer brings one local mirror tree up to date with its upstream. The
// caller is expected to have filtered unchanged repositories through the
// Detector first.
type Syncer struct {
	client        fetch.Client
	cache         *pkgcache.Index
	maxConcurrent int
	verifyWorkers int
}

// NewSyncer creates a sync engine sharing the given client and content
// cache. maxConcurrent bounds in-flight package downloads.
func NewSyncer(client fetch.Client, cache *pkgcache.Index, maxConcurrent int) *Syncer {
	if maxConcurrent < 1 {
		maxConcurrent = config.DefaultMaxConcurrentDownloads
	}
	return &Syncer{
		client:        client,
		cache:         cache,
		maxConcurrent: maxConcurrent,
		verifyWorkers: runtime.NumCPU(),
	}
}

type fetchTask struct {
	pkg    *rpmmd.Package
	target string
}

// Sync performs one full pass over the repository: metadata, diff, fetch.
// A returned error means the whole repo cycle failed (metadata unusable);
// per-package failures only show up in the report.
func (s *Syncer) Sync(ctx context.Context, repo *config.RepositoryConfig) (*Report, error) {
	report := &Report{}

	for _, dir := range []string{repo.LocalPath, filepath.Join(repo.LocalPath, "Packages"), filepath.Join(repo.LocalPath, "repodata")} {
		if err := fsutil.EnsureDir(dir); err != nil {
			return report, errors.Wrapf(err, "failed to prepare %s", dir)
		}
	}

	md, err := s.syncRepomd(ctx, repo)
	if err != nil {
		return report, err
	}

	s.syncMetadataFiles(ctx, repo, md)

	packages, err := s.loadPrimary(repo, md)
	if err != nil {
		return report, err
	}

	logger.InfofWithFields(logger.Fields{"repo": repo.Name}, "primary index lists %d packages", len(packages))

	tasks := s.diffPackages(repo, packages, report)
	s.fetchPackages(ctx, repo, tasks, report)

	logger.InfofWithFields(logger.Fields{"repo": repo.Name}, "sync done: %s", report)
	return report, nil
}

// syncRepomd fetches the upstream repomd.xml, persists it verbatim and
// returns the parsed form.
func (s *Syncer) syncRepomd(ctx context.Context, repo *config.RepositoryConfig) (*rpmmd.Repomd, error) {
	url := RepomdURL(repo.URL)
	body, err := s.client.FetchString(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", url)
	}

	md, err := rpmmd.ParseRepomd(strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", url)
	}

	localPath := filepath.Join(repo.LocalPath, "repodata", "repomd.xml")
	if err := os.WriteFile(localPath, []byte(body), fsutil.FileModeDefault); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", localPath)
	}
	return md, nil
}

// syncMetadataFiles mirrors the companion streams repomd references. Failures
// are logged per entry and never abort the cycle: a missing filelists must
// not cost us the packages.
func (s *Syncer) syncMetadataFiles(ctx context.Context, repo *config.RepositoryConfig, md *rpmmd.Repomd) {
	for _, data := range md.Data {
		href := data.Location.Href
		if href == "" {
			continue
		}

		// A group entry may live beside repodata/ rather than inside it;
		// mirror it at the same relative path either way.
		target, err := fsutil.SafeJoin(repo.LocalPath, filepath.FromSlash(href))
		if err != nil {
			logger.WarnfWithFields(logger.Fields{"repo": repo.Name, "type": data.Type}, "skipping metadata entry with unsafe href %q", href)
			continue
		}

		if fileMatchesChecksum(target, data.Checksum) {
			continue
		}

		url := joinURL(repo.URL, href)
		if err := s.client.DownloadFile(ctx, url, target); err != nil {
			logger.WarnfWithFields(logger.Fields{"repo": repo.Name, "type": data.Type}, "failed to fetch metadata %s: %v", url, err)
		}
	}
}

func fileMatchesChecksum(path string, cs rpmmd.Checksum) bool {
	if cs.Value == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	algo := cs.Type
	if algo == "" {
		algo = hash.AlgoSHA256
	}
	digest, err := hash.FileDigest(path, algo)
	if err != nil {
		return false
	}
	return digest == strings.ToLower(strings.TrimSpace(cs.Value))
}

// loadPrimary resolves and parses the local copy of the primary index.
func (s *Syncer) loadPrimary(repo *config.RepositoryConfig, md *rpmmd.Repomd) ([]*rpmmd.Package, error) {
	href, ok := md.DataHref("primary")
	if !ok {
		return nil, errors.Wrapf(errors.ErrPrimaryMissing, "repo %s", repo.Name)
	}

	localPath, err := fsutil.SafeJoin(repo.LocalPath, filepath.FromSlash(href))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrPrimaryMissing, "repo %s: unsafe href %q", repo.Name, href)
	}
	if _, err := os.Stat(localPath); err != nil {
		return nil, errors.Wrapf(errors.ErrPrimaryMissing, "repo %s: %s", repo.Name, localPath)
	}

	packages, err := rpmmd.ParsePrimaryFile(localPath)
	if err != nil {
		return nil, errors.Wrapf(err, "repo %s: failed to parse primary index", repo.Name)
	}
	return packages, nil
}

// diffPackages verifies the local tree against the primary index in
// parallel and returns the packages that need fetching.
func (s *Syncer) diffPackages(repo *config.RepositoryConfig, packages []*rpmmd.Package, report *Report) []fetchTask {
	var (
		mu    sync.Mutex
		tasks []fetchTask
		wg    sync.WaitGroup
	)
	work := make(chan *rpmmd.Package)

	for w := 0; w < s.verifyWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pkg := range work {
				target, need := s.checkPackage(repo, pkg, report)
				if need {
					mu.Lock()
					tasks = append(tasks, fetchTask{pkg: pkg, target: target})
					mu.Unlock()
				}
			}
		}()
	}

	for _, pkg := range packages {
		work <- pkg
	}
	close(work)
	wg.Wait()

	return tasks
}

// checkPackage decides whether one package must be fetched. Existing files
// are trusted only as far as size and, when declared, digest agree.
func (s *Syncer) checkPackage(repo *config.RepositoryConfig, pkg *rpmmd.Package, report *Report) (string, bool) {
	if err := pkg.Validate(); err != nil {
		logger.WarnfWithFields(logger.Fields{"repo": repo.Name, "package": pkg.NEVRA()}, "invalid package record: %v", err)
		atomic.AddInt64(&report.Failed, 1)
		return "", false
	}

	target, err := fsutil.SafeJoin(repo.LocalPath, filepath.FromSlash(pkg.LocationHref))
	if err != nil {
		logger.WarnfWithFields(logger.Fields{"repo": repo.Name, "package": pkg.NEVRA()}, "unsafe location href %q", pkg.LocationHref)
		atomic.AddInt64(&report.Failed, 1)
		return "", false
	}

	info, err := os.Stat(target)
	if err != nil {
		return target, true
	}
	if info.Size() != pkg.PackageSize {
		logger.DebugfWithFields(logger.Fields{"repo": repo.Name}, "size mismatch for %s: have %d want %d", pkg.Filename(), info.Size(), pkg.PackageSize)
		return target, true
	}
	if pkg.Checksum != "" {
		digest, err := hash.FileDigest(target, pkg.ChecksumType)
		if err != nil || digest != pkg.Checksum {
			logger.WarnfWithFields(logger.Fields{"repo": repo.Name, "package": pkg.Filename()}, "corrupted on disk, scheduling re-fetch")
			atomic.AddInt64(&report.Corrupted, 1)
			return target, true
		}
	}

	atomic.AddInt64(&report.Skipped, 1)
	return "", false
}

// fetchPackages downloads or locally copies every task under the download
// semaphore. Each worker owns its target exclusively.
func (s *Syncer) fetchPackages(ctx context.Context, repo *config.RepositoryConfig, tasks []fetchTask, report *Report) {
	if len(tasks) == 0 {
		return
	}
	logger.InfofWithFields(logger.Fields{"repo": repo.Name}, "fetching %d packages", len(tasks))

	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for _, task := range tasks {
		if ctx.Err() != nil {
			// Unstarted work is counted as failed; the next cycle picks it up.
			atomic.AddInt64(&report.Failed, 1)
			continue
		}

		wg.Add(1)
		go func(task fetchTask) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s.fetchOne(ctx, repo, task, report)
		}(task)
	}
	wg.Wait()
}

func (s *Syncer) fetchOne(ctx context.Context, repo *config.RepositoryConfig, task fetchTask, report *Report) {
	pkg := task.pkg

	if err := fsutil.EnsureFileDir(task.target); err != nil {
		logger.ErrorfWithFields(logger.Fields{"repo": repo.Name, "package": pkg.Filename()}, "cannot create package directory: %v", err)
		atomic.AddInt64(&report.Failed, 1)
		return
	}

	// Another mirror tree may already hold an identical file.
	if match, ok := s.cache.FindMatchingFile(pkg.PackageSize, pkg.Checksum, pkg.ChecksumType); ok && match != task.target {
		if err := fsutil.Copy(match, task.target); err != nil {
			logger.WarnfWithFields(logger.Fields{"repo": repo.Name, "package": pkg.Filename()}, "local copy from %s failed, falling back to download: %v", match, err)
		} else {
			_ = s.cache.Register(task.target)
			n := atomic.AddInt64(&report.LocalCopied, 1)
			if n%copyLogEvery == 0 {
				logger.InfofWithFields(logger.Fields{"repo": repo.Name}, "%d packages copied locally", n)
			}
			return
		}
	}

	if err := s.download(ctx, repo, task); err != nil {
		logger.ErrorfWithFields(logger.Fields{"repo": repo.Name, "package": pkg.Filename()}, "fetch failed: %v", err)
		atomic.AddInt64(&report.Failed, 1)
		return
	}

	_ = s.cache.Register(task.target)
	n := atomic.AddInt64(&report.Downloaded, 1)
	if n%networkLogEvery == 0 {
		logger.InfofWithFields(logger.Fields{"repo": repo.Name}, "%d packages downloaded", n)
	}
}

// download fetches one package to its temp sibling, verifies the declared
// digest (or, when none is declared, the size) and promotes the file.
func (s *Syncer) download(ctx context.Context, repo *config.RepositoryConfig, task fetchTask) error {
	pkg := task.pkg
	url := joinURL(repo.URL, pkg.LocationHref)

	tmpPath, err := s.client.DownloadToTemp(ctx, url, task.target)
	if err != nil {
		return err
	}

	if pkg.Checksum != "" {
		digest, err := hash.FileDigest(tmpPath, pkg.ChecksumType)
		if err != nil {
			_ = os.Remove(tmpPath)
			return err
		}
		if digest != pkg.Checksum {
			_ = os.Remove(tmpPath)
			return errors.Wrapf(errors.ErrChecksumMismatch, "%s: got %s want %s", pkg.Filename(), digest, pkg.Checksum)
		}
	} else {
		info, err := os.Stat(tmpPath)
		if err != nil {
			_ = os.Remove(tmpPath)
			return err
		}
		if info.Size() != pkg.PackageSize {
			_ = os.Remove(tmpPath)
			return errors.Wrapf(errors.ErrDownloadFailed, "%s: got %d bytes want %d", pkg.Filename(), info.Size(), pkg.PackageSize)
		}
	}

	return fetch.PromoteTemp(tmpPath, task.target)
}

// RepomdURL returns the canonical repomd.xml URL under a repository root.
func RepomdURL(baseURL string) string {
	return joinURL(baseURL, "repodata/repomd.xml")
}

func joinURL(baseURL, href string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(href, "/")
}
