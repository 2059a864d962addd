package mirror

import (
	"context"
	"os"

	"github.com/glorpus-work/yumsync/internal/logger"
	"github.com/glorpus-work/yumsync/pkg/fetch"
	"github.com/glorpus-work/yumsync/pkg/hash"
)

// Detector decides whether a repository needs a sync by comparing the
// upstream repomd.xml against the local copy. MD5 is an identity witness
// here; per-artifact integrity uses the strong checksums repomd declares.
type Detector struct {
	client fetch.Client
}

// NewDetector creates a change detector using the given client.
func NewDetector(client fetch.Client) *Detector {
	return &Detector{client: client}
}

// HasChanged reports whether the upstream repomd.xml differs from the local
// copy. Any failure to compare biases toward syncing.
func (d *Detector) HasChanged(ctx context.Context, remoteURL, localPath string) bool {
	if _, err := os.Stat(localPath); err != nil {
		return true
	}

	remote, err := d.client.FetchBytes(ctx, remoteURL)
	if err != nil {
		logger.Debugf("change check GET %s failed, assuming changed: %v", remoteURL, err)
		return true
	}

	localMD5, err := hash.FileMD5(localPath)
	if err != nil {
		logger.Debugf("change check cannot hash %s, assuming changed: %v", localPath, err)
		return true
	}

	return hash.SumMD5(remote) != localMD5
}
