//go:generate mockgen -destination=mocks/client.go -package=mocks . Client
package fetch

import "context"

// Client defines the HTTP operations the sync engine needs. All methods
// honor the context and the client's total-request timeout; none retry.
type Client interface {
	// FetchString GETs the URL and returns the body as a string. Intended
	// for small text documents such as repomd.xml.
	FetchString(ctx context.Context, url string) (string, error)

	// FetchBytes GETs the URL and returns the body.
	FetchBytes(ctx context.Context, url string) ([]byte, error)

	// DownloadToTemp GETs the URL and streams the body to the target's
	// sibling temp path (<target>.downloading). It returns the temp path;
	// the caller verifies the content and promotes or discards it.
	DownloadToTemp(ctx context.Context, url, target string) (string, error)

	// DownloadFile GETs the URL to <target>.downloading and promotes it to
	// target on success. The content is not verified.
	DownloadFile(ctx context.Context, url, target string) error
}
