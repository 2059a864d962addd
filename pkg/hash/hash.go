// Package hash computes the file and byte-string digests used for mirror
// integrity checks. MD5 is only ever an identity witness for repomd
// comparison; artifact verification uses the checksum type upstream declares.
package hash

import (
	"crypto/md5" //nolint:gosec // identity witness, not a security boundary
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/glorpus-work/yumsync/pkg/errors"
)

// Supported digest algorithm names as they appear in repomd/primary metadata.
const (
	AlgoMD5    = "md5"
	AlgoSHA1   = "sha1"
	AlgoSHA256 = "sha256"
	AlgoSHA512 = "sha512"
)

func newDigest(algo string) (hash.Hash, error) {
	switch algo {
	case AlgoMD5:
		return md5.New(), nil //nolint:gosec
	case AlgoSHA1, "sha":
		return sha1.New(), nil //nolint:gosec
	case AlgoSHA256:
		return sha256.New(), nil
	case AlgoSHA512:
		return sha512.New(), nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownDigest, "%q", algo)
	}
}

// FileDigest streams the file at path through the named digest algorithm and
// returns the lowercase hex sum.
func FileDigest(path, algo string) (string, error) {
	digest, err := newDigest(algo)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(digest, file); err != nil {
		return "", errors.Wrapf(err, "failed to hash %s", path)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// FileMD5 returns the hex MD5 of the file at path.
func FileMD5(path string) (string, error) {
	return FileDigest(path, AlgoMD5)
}

// FileSHA256 returns the hex SHA-256 of the file at path.
func FileSHA256(path string) (string, error) {
	return FileDigest(path, AlgoSHA256)
}

// SumSHA256 returns the hex SHA-256 of data.
func SumSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SumMD5 returns the hex MD5 of data.
func SumMD5(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
