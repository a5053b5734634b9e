package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"resty.dev/v3"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "pricewatch"
)

// ClientOptions configures the shared HTTP client
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPClient creates the single HTTP client handed to every component that
// talks to the network. Requests are attempted exactly once.
func NewHTTPClient(opts ClientOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	return resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)
}

// HTTPGetter implements Getter on top of a resty client
type HTTPGetter struct {
	client *resty.Client
	logger *slog.Logger
}

// NewHTTPGetter wraps an existing client. The client is shared, not owned.
func NewHTTPGetter(client *resty.Client, logger *slog.Logger) *HTTPGetter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPGetter{
		client: client,
		logger: logger,
	}
}

// Get performs one GET request and classifies any failure into a *FetchError
func (g *HTTPGetter) Get(ctx context.Context, url string, query map[string]string) ([]byte, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(url)
	if err != nil {
		g.logger.Debug("request failed", "url", url, "error", err.Error())
		if isTimeout(err) {
			return nil, NewTimeoutError(err)
		}
		return nil, NewNetworkError(err)
	}

	if !resp.IsSuccess() {
		g.logger.Debug("request returned non-success status", "url", url, "status_code", resp.StatusCode())
		return nil, ClassifyHTTPError(resp.StatusCode())
	}

	return resp.Bytes(), nil
}

// isTimeout reports whether err was caused by a deadline rather than a refused or broken connection
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
