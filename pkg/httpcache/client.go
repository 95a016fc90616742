package httpcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Client performs HTTP GETs with retry, backoff and jitter, serving and
// filling the cache when one is configured. A nil cache disables caching
// but keeps the retry policy.
type Client struct {
	cache  *Cache
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client. cache may be nil.
func NewClient(cache *Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cache:  cache,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Get fetches a URL and returns the response body. Server errors are
// retried with exponential backoff and jitter; client errors are not.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		if data, found := c.cache.Get(url); found {
			c.logger.Debug("cache hit", "url", url, "size", len(data))
			return data, nil
		}
	}

	start := time.Now()
	var body []byte

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.http.Do(req)
			if err != nil {
				c.logger.Warn("request failed", "url", url, "error", err)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Debug("failed to close response body", "error", closeErr)
				}
			}()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return retry.Unrecoverable(fmt.Errorf("rate limited by %s", req.URL.Host))
			case resp.StatusCode >= 500:
				return fmt.Errorf("server error from %s: %d", req.URL.Host, resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host))
			}

			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("retrying request", "url", url, "attempt", n+1, "error", err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("request completed", "url", url, "size", len(body), "duration", time.Since(start))

	if c.cache != nil {
		c.cache.Set(url, body)
	}
	return body, nil
}

// GetReader is Get exposed as a stream, for consumers that parse
// incrementally.
func (c *Client) GetReader(ctx context.Context, url string) (io.Reader, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(body), nil
}
