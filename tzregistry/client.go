package tzregistry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client downloads rule packs from an HTTP pack server. Callers are
// advised to store the ETags returned by Latest and Download and pass
// them to subsequent calls to avoid downloading the same data multiple
// times.
type Client struct {
	// BaseURL is the base URL of the pack server. It must be set.
	BaseURL string
	// HTTPClient is the http.Client used to talk to the pack server.
	// If HTTPClient is nil, http.DefaultClient is used.
	//
	// This variable is useful to prevent network calls during tests by
	// using a http.Client with a fake http.RoundTripper that returns
	// canned responses. You can also use it to set timeouts, control
	// redirects, etc. However, timeouts are also controlled by the
	// context passed to the Download and Latest methods.
	HTTPClient *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

const (
	// latestPackPath is the path of the latest pack relative to the
	// server base URL.
	latestPackPath = "tzpack-latest.bin"
	// emptyEtag is the empty etag value.
	emptyEtag = ""
)

// Latest downloads and decodes the latest pack from the pack server.
//
// If the server responds with a 304 Not Modified status code, the
// returned ETag is the same as the input and the returned Pack and
// error are both nil.
//
// If an error is returned, the returned ETag is empty and the returned
// Pack is nil.
func (c *Client) Latest(ctx context.Context, etag string) (*Pack, string, error) {
	r, newEtag, err := c.Download(ctx, latestPackPath, etag)
	if err != nil {
		return nil, emptyEtag, err
	}
	if r == nil {
		return nil, etag, nil // Not modified.
	}
	defer func() {
		// Drain and close the response body to ensure the
		// connection can be reused.
		_, _ = io.ReadAll(r)
		_ = r.Close()
	}()

	pack, err := ReadPack(r)
	if err != nil {
		return nil, emptyEtag, err
	}
	return pack, newEtag, nil
}

// Download downloads the resource at the given path from the pack
// server.
//
// The returned ETag is the ETag of the downloaded resource. If the
// server responds with a 304 Not Modified status code, the returned
// ETag is the same as the input and the returned io.ReadCloser and
// error are both nil.
//
// If no error is returned, the returned io.ReadCloser is a
// [http.Response.Body] and needs to be read fully and closed by the
// caller to prevent resource leaks.
//
// An error is returned for HTTP status codes other than 200 OK and
// 304 Not Modified.
func (c *Client) Download(ctx context.Context, path, etag string) (io.ReadCloser, string, error) {
	if c.BaseURL == "" {
		return nil, emptyEtag, fmt.Errorf("download: no base URL configured")
	}
	u, err := url.JoinPath(c.BaseURL, path)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("join URL: %w", err)
	}
	return c.downloadIfNoneMatch(ctx, u, etag)
}

// downloadIfNoneMatch downloads the resource at the given URL with
// caching using the given ETag.
//
// If the etag is not empty and the server responds with a 304 Not
// Modified status code, the returned io.ReadCloser and error are both
// nil, and the etag is the same as the input.
func (c *Client) downloadIfNoneMatch(ctx context.Context, url, etag string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("create request for %q: %w", url, err)
	}

	if etag != emptyEtag {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("GET %q: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Drain and close the response body to reuse the connection.
		// In theory, the server will not send a body with all status
		// codes, but draining before closing the body is the safe
		// thing to do.
		_, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		// Not modified response means the resource has not changed
		// based on the ETag we sent. This is fine.
		if resp.StatusCode == http.StatusNotModified {
			return nil, etag, nil
		}

		return nil, emptyEtag, fmt.Errorf("response for %q: unexpected status: %s", url, resp.Status)
	}

	// Caller must take care of closing the response body.
	return resp.Body, resp.Header.Get("etag"), nil
}
