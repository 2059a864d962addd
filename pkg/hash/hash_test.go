package hash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/yumsync/pkg/errors"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestFileDigest(t *testing.T) {
	// Digests of the ASCII string "hello".
	tests := []struct {
		algo string
		want string
	}{
		{AlgoMD5, "5d41402abc4b2a76b9719d911017c592"},
		{AlgoSHA1, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"},
		{AlgoSHA256, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
	}

	path := writeTemp(t, []byte("hello"))
	for _, tt := range tests {
		t.Run(tt.algo, func(t *testing.T) {
			got, err := FileDigest(path, tt.algo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileDigestUnknownAlgo(t *testing.T) {
	path := writeTemp(t, []byte("hello"))
	_, err := FileDigest(path, "crc32")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownDigest)
}

func TestFileDigestMissingFile(t *testing.T) {
	_, err := FileSHA256(filepath.Join(t.TempDir(), "missing.rpm"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestSumHelpersMatchFileHelpers(t *testing.T) {
	content := []byte("repomd contents")
	path := writeTemp(t, content)

	fileMD5, err := FileMD5(path)
	require.NoError(t, err)
	assert.Equal(t, SumMD5(content), fileMD5)

	fileSHA, err := FileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, SumSHA256(content), fileSHA)
}
