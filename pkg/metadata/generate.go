// Package metadata keeps a mirror tree installable: upstream repodata is
// preferred verbatim, and only when it is absent or references missing files
// is a minimal primary/repomd pair regenerated from the RPMs on disk.
//
// The regenerated pair omits filelists and other streams; that satisfies
// install-time resolution but not file-level queries.
package metadata

import (
	"compress/gzip"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cavaliergopher/rpm"

	"github.com/glorpus-work/yumsync/internal/logger"
	"github.com/glorpus-work/yumsync/pkg/errors"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
	"github.com/glorpus-work/yumsync/pkg/hash"
	"github.com/glorpus-work/yumsync/pkg/rpmmd"
)

// headerRangeCap caps the fabricated header-range end.
const headerRangeCap = 65536

// Generator rebuilds repodata for one mirror tree.
type Generator struct {
	// LocalRoot is the mirror tree to scan.
	LocalRoot string
	// RepoName is used for logging only.
	RepoName string
}

// Generate scans LocalRoot for RPMs and writes repodata/primary.xml.gz and
// repodata/repomd.xml describing them.
func (g *Generator) Generate() error {
	packages, err := g.collectPackages()
	if err != nil {
		return err
	}
	logger.InfofWithFields(logger.Fields{"repo": g.RepoName}, "regenerating metadata for %d packages", len(packages))

	repodataDir := filepath.Join(g.LocalRoot, "repodata")
	if err := fsutil.EnsureDir(repodataDir); err != nil {
		return errors.Wrapf(err, "failed to create %s", repodataDir)
	}

	primary, err := renderPrimary(packages)
	if err != nil {
		return err
	}

	gzPath := filepath.Join(repodataDir, "primary.xml.gz")
	compressed, err := writeGzip(gzPath, primary)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	entry := rpmmd.DataEntry{
		Type:         "primary",
		Href:         "repodata/primary.xml.gz",
		Checksum:     hash.SumSHA256(compressed),
		OpenChecksum: hash.SumSHA256(primary),
		Size:         int64(len(compressed)),
		OpenSize:     int64(len(primary)),
		Timestamp:    now,
	}

	repomdPath := filepath.Join(repodataDir, "repomd.xml")
	file, err := os.OpenFile(repomdPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", repomdPath)
	}
	if err := rpmmd.WriteRepomd(file, now, []rpmmd.DataEntry{entry}); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// collectPackages walks the tree and builds one record per RPM outside
// repodata/.
func (g *Generator) collectPackages() ([]*rpmmd.Package, error) {
	var packages []*rpmmd.Package

	err := filepath.WalkDir(g.LocalRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == "repodata" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".rpm") {
			return nil
		}

		pkg, err := g.describePackage(path)
		if err != nil {
			logger.WarnfWithFields(logger.Fields{"repo": g.RepoName}, "skipping %s: %v", path, err)
			return nil
		}
		packages = append(packages, pkg)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", g.LocalRoot)
	}
	return packages, nil
}

// describePackage builds a primary record for one file. The RPM header is
// the best source; files with unreadable headers fall back to filename
// parsing so a damaged tree still yields usable metadata.
func (g *Generator) describePackage(path string) (*rpmmd.Package, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	digest, err := hash.FileSHA256(path)
	if err != nil {
		return nil, err
	}

	relPath, err := filepath.Rel(g.LocalRoot, path)
	if err != nil {
		return nil, err
	}

	size := info.Size()
	mtime := info.ModTime().Unix()

	pkg := &rpmmd.Package{
		Epoch:         "0",
		ChecksumType:  "sha256",
		Checksum:      digest,
		FileTime:      mtime,
		BuildTime:     mtime,
		PackageSize:   size,
		InstalledSize: size,
		ArchiveSize:   size,
		LocationHref:  filepath.ToSlash(relPath),
		License:       "Unknown",
		Group:         "Unspecified",
		HeaderEnd:     min(size, headerRangeCap),
	}

	if header, err := readHeader(path); err == nil {
		applyHeader(pkg, header)
	} else {
		name, version, release, arch := ParseFilename(filepath.Base(path))
		pkg.Name = name
		pkg.Version = version
		pkg.Release = release
		pkg.Arch = arch
	}

	if pkg.Summary == "" {
		pkg.Summary = pkg.Name
	}
	if pkg.Description == "" {
		pkg.Description = pkg.Name
	}
	return pkg, nil
}

func readHeader(path string) (*rpm.Package, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return rpm.Read(file)
}

func applyHeader(pkg *rpmmd.Package, header *rpm.Package) {
	pkg.Name = header.Name()
	pkg.Version = header.Version()
	pkg.Release = header.Release()
	pkg.Arch = header.Architecture()
	if header.Epoch() > 0 {
		pkg.Epoch = strconv.Itoa(header.Epoch())
	}
	pkg.Summary = header.Summary()
	pkg.Description = header.Description()
	pkg.Packager = header.Packager()
	pkg.URL = header.URL()
	pkg.License = header.License()
	pkg.Vendor = header.Vendor()
	pkg.BuildHost = header.BuildHost()
	pkg.SourceRPM = header.SourceRPM()
	if !header.BuildTime().IsZero() {
		pkg.BuildTime = header.BuildTime().Unix()
	}
	if groups := header.Groups(); len(groups) > 0 && groups[0] != "" {
		pkg.Group = groups[0]
	}
	if n := int64(header.Size()); n > 0 {
		pkg.InstalledSize = n
	}
	if n := int64(header.ArchiveSize()); n > 0 {
		pkg.ArchiveSize = n
	}
}

func renderPrimary(packages []*rpmmd.Package) ([]byte, error) {
	var buf strings.Builder
	if err := rpmmd.WritePrimary(&buf, packages); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// writeGzip writes data to path at the highest compression level and returns
// the compressed bytes.
func writeGzip(path string, data []byte) ([]byte, error) {
	var out strings.Builder
	zw, err := gzip.NewWriterLevel(&out, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	compressed := []byte(out.String())
	if err := os.WriteFile(path, compressed, fsutil.FileModeDefault); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", path)
	}
	return compressed, nil
}
