// Package pkgcache indexes the RPM files already present across all local
// mirror trees so the sync engine can satisfy a download with a local copy.
// The size bucket is the cheap pre-filter; a candidate only gets hashed when
// its size already matches, and digests are memoized per (algorithm, path).
package pkgcache

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/glorpus-work/yumsync/internal/logger"
	"github.com/glorpus-work/yumsync/pkg/hash"
)

// Index is a size-bucketed view of every *.rpm under the configured roots.
// Register is safe for concurrent use; lookups may hash candidates and
// memoize the result.
type Index struct {
	mu     sync.Mutex
	bySize map[int64][]string

	// digest memo keyed by algo + "\x00" + path
	memo sync.Map
}

type memoEntry struct {
	size int64
	hex  string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{bySize: make(map[int64][]string)}
}

// BuildIndex walks every root and indexes the RPM files it can see. Unreadable
// subtrees are logged and skipped; a missing root is not an error.
func BuildIndex(roots []string) *Index {
	ix := NewIndex()
	for _, root := range roots {
		if err := ix.AddRoot(root); err != nil {
			logger.Warnf("failed to index %s: %v", root, err)
		}
	}
	return ix
}

// AddRoot recursively indexes all *.rpm files under root.
func (ix *Index) AddRoot(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			logger.Debugf("skipping %s: %v", path, walkErr)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".rpm") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		ix.add(info.Size(), path)
		return nil
	})
}

// Register adds a freshly written RPM file to the index.
func (ix *Index) Register(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	ix.add(info.Size(), path)
	return nil
}

func (ix *Index) add(size int64, path string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.bySize[size] = append(ix.bySize[size], path)
}

func (ix *Index) candidates(size int64) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	bucket := ix.bySize[size]
	out := make([]string, len(bucket))
	copy(out, bucket)
	return out
}

// Len reports the number of indexed files.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n := 0
	for _, bucket := range ix.bySize {
		n += len(bucket)
	}
	return n
}

// FindMatchingFile returns a local path whose size and digest match the
// expectation, or false. Candidates that vanished or cannot be read are
// ignored.
func (ix *Index) FindMatchingFile(size int64, checksum, algo string) (string, bool) {
	if size <= 0 || checksum == "" {
		return "", false
	}
	checksum = strings.ToLower(checksum)

	for _, path := range ix.candidates(size) {
		info, err := os.Stat(path)
		if err != nil || info.Size() != size {
			continue
		}
		hex, err := ix.digest(path, algo, info.Size())
		if err != nil {
			logger.Debugf("cannot hash dedup candidate %s: %v", path, err)
			continue
		}
		if hex == checksum {
			return path, true
		}
	}
	return "", false
}

// digest returns the memoized digest of path, recomputing when the file's
// size no longer matches the memo.
func (ix *Index) digest(path, algo string, currentSize int64) (string, error) {
	key := algo + "\x00" + path
	if v, ok := ix.memo.Load(key); ok {
		entry := v.(memoEntry)
		if entry.size == currentSize {
			return entry.hex, nil
		}
		ix.memo.Delete(key)
	}

	hex, err := hash.FileDigest(path, algo)
	if err != nil {
		return "", err
	}
	ix.memo.Store(key, memoEntry{size: currentSize, hex: hex})
	return hex, nil
}
