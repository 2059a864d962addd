package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/glorpus-work/yumsync/pkg/errors"
	"github.com/glorpus-work/yumsync/pkg/fsutil"
)

// HTTPClient performs the plain GET requests used to mirror a repository.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// DefaultTimeout is the total-request timeout used when none is configured.
const DefaultTimeout = 300 * time.Second

// NewHTTPClient creates a new HTTP client with the given total-request
// timeout and a User-Agent identifying the tool.
func NewHTTPClient(timeout time.Duration, userAgent string) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = "yumsync/dev"
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (hc *HTTPClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", hc.userAgent)

	resp, err := hc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDownloadFailed, err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrUnexpectedStatus, "GET %s: %d", url, resp.StatusCode)
	}
	return resp, nil
}

// FetchString GETs the URL and returns the body as a string.
func (hc *HTTPClient) FetchString(ctx context.Context, url string) (string, error) {
	data, err := hc.FetchBytes(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FetchBytes GETs the URL and returns the body.
func (hc *HTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := hc.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read body of %s", url)
	}
	return data, nil
}

// DownloadToTemp GETs the URL and streams the body to <target>.downloading.
// On any error the temp file is removed. The caller owns verification and
// promotion of the returned path.
func (hc *HTTPClient) DownloadToTemp(ctx context.Context, url, target string) (string, error) {
	if err := fsutil.EnsureFileDir(target); err != nil {
		return "", errors.Wrapf(err, "failed to create directory for %s", target)
	}

	resp, err := hc.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath := target + fsutil.DownloadSuffix
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create temp file %s", tmpPath)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrapf(errors.ErrDownloadFailed, "GET %s: %s", url, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Wrapf(err, "failed to close temp file %s", tmpPath)
	}
	return tmpPath, nil
}

// DownloadFile GETs the URL to the target path via its temp sibling.
func (hc *HTTPClient) DownloadFile(ctx context.Context, url, target string) error {
	tmpPath, err := hc.DownloadToTemp(ctx, url, target)
	if err != nil {
		return err
	}
	if err := PromoteTemp(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// PromoteTemp atomically renames a verified temp file over its target.
func PromoteTemp(tmpPath, target string) error {
	return fsutil.ReplaceFile(tmpPath, target)
}
