// Package convert talks to the remote service that turns an audio stream
// into a playable WAV file.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"musicreplacer/internal/config"
	"musicreplacer/internal/services"
)

const maxReplyBytes = 8 << 10

// HTTPDoer describes the HTTP client used by the conversion client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Converter is the behaviour the override manager needs.
type Converter interface {
	Convert(ctx context.Context, originURL, downloadURL string) (string, error)
	Download(ctx context.Context, fileURL string, w io.Writer) (int64, error)
}

// Client issues conversion requests and downloads their results.
type Client struct {
	endpoint    string
	readTimeout time.Duration
	client      HTTPDoer
}

// NewConfiguredClient builds a client from the converter section of cfg.
func NewConfiguredClient(cfg *config.Config) *Client {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return New(cfg.Converter.Endpoint, cfg.ConverterReadTimeout(), http.DefaultClient)
}

// New constructs a client. A nil doer falls back to http.DefaultClient.
func New(endpoint string, readTimeout time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		endpoint:    strings.TrimSpace(endpoint),
		readTimeout: readTimeout,
		client:      doer,
	}
}

// Endpoint returns the configured conversion URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Convert asks the service to convert the stream at downloadURL and returns
// the URL of the converted file. originURL identifies the source page.
func (c *Client) Convert(ctx context.Context, originURL, downloadURL string) (string, error) {
	if strings.TrimSpace(downloadURL) == "" {
		return "", services.Wrap(services.ErrValidation, "convert", "request", "download URL is empty", nil)
	}
	if strings.TrimSpace(originURL) == "" {
		originURL = downloadURL
	}
	requestURL, err := c.requestURL(originURL, downloadURL)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "convert", "request", "invalid endpoint", err)
	}

	if c.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.readTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("build conversion request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "convert", "request", fmt.Sprintf("no reply within %s", c.readTimeout), err)
		}
		return "", services.Wrap(services.ErrTransient, "convert", "request", "conversion request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "convert", "read reply", "", err)
	}
	reply := strings.TrimSpace(string(body))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.Wrap(services.ErrExternalTool, "convert", "request",
			fmt.Sprintf("conversion service returned %d: %s", resp.StatusCode, reply), nil)
	}

	parsed, err := url.Parse(reply)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", services.Wrap(services.ErrExternalTool, "convert", "request",
			fmt.Sprintf("conversion service replied with a non-URL body %q", reply), nil)
	}
	return reply, nil
}

// Download streams the file at fileURL into w.
func (c *Client) Download(ctx context.Context, fileURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "convert", "download", "invalid file URL", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "convert", "download", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, services.Wrap(services.ErrExternalTool, "convert", "download",
			fmt.Sprintf("file server returned %d", resp.StatusCode), nil)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, services.Wrap(services.ErrTransient, "convert", "download", "stream interrupted", err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, services.Wrap(services.ErrTransient, "convert", "download",
			fmt.Sprintf("short body: got %d of %d bytes", n, resp.ContentLength), nil)
	}
	return n, nil
}

// ContentLength issues a HEAD request and returns the advertised size, or -1.
func (c *Client) ContentLength(ctx context.Context, fileURL string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fileURL, nil)
	if err != nil {
		return -1
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return -1
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return -1
	}
	return resp.ContentLength
}

func (c *Client) requestURL(originURL, downloadURL string) (string, error) {
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("endpoint %q is not absolute", c.endpoint)
	}
	query := base.Query()
	query.Set("originUrl", originURL)
	query.Set("dlUrl", downloadURL)
	base.RawQuery = query.Encode()
	return base.String(), nil
}
