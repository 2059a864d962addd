package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/yumsync/pkg/errors"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchString(t *testing.T) {
	var gotUA string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<repomd/>"))
	})

	hc := NewHTTPClient(time.Minute, "yumsync/1.0")
	body, err := hc.FetchString(context.Background(), srv.URL+"/repodata/repomd.xml")
	require.NoError(t, err)
	assert.Equal(t, "<repomd/>", body)
	assert.Equal(t, "yumsync/1.0", gotUA)
}

func TestFetchBytesStatusError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	hc := NewHTTPClient(time.Minute, "yumsync/1.0")
	_, err := hc.FetchBytes(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnexpectedStatus)
}

func TestDownloadToTemp(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("rpm-payload"))
	})

	target := filepath.Join(t.TempDir(), "Packages", "a-1-1.el7.x86_64.rpm")
	hc := NewHTTPClient(time.Minute, "yumsync/1.0")

	tmpPath, err := hc.DownloadToTemp(context.Background(), srv.URL+"/a.rpm", target)
	require.NoError(t, err)
	assert.Equal(t, target+fsutil.DownloadSuffix, tmpPath)

	// Not promoted yet.
	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, PromoteTemp(tmpPath, target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("rpm-payload"), data)

	_, err = os.Stat(tmpPath)
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadToTempLeavesNoTempOnHTTPError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	dir := t.TempDir()
	target := filepath.Join(dir, "a.rpm")
	hc := NewHTTPClient(time.Minute, "yumsync/1.0")

	_, err := hc.DownloadToTemp(context.Background(), srv.URL+"/a.rpm", target)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadFileReplacesExisting(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fresh"))
	})

	target := filepath.Join(t.TempDir(), "repomd.xml")
	require.NoError(t, os.WriteFile(target, []byte("stale"), 0o644))

	hc := NewHTTPClient(time.Minute, "yumsync/1.0")
	require.NoError(t, hc.DownloadFile(context.Background(), srv.URL+"/repomd.xml", target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), data)
}

func TestFetchHonorsContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	hc := NewHTTPClient(time.Minute, "yumsync/1.0")
	_, err := hc.FetchBytes(ctx, srv.URL)
	require.Error(t, err)
}
