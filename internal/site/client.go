// Package site implements the HTTP client for disclosures.utah.gov.
// It issues the site's search and report requests and classifies every
// response as a success, a transient failure worth retrying, or a
// permanent failure worth skipping.
package site

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/utdisclosures/internal/logger"
)

// Default client settings.
const (
	// DefaultBaseURL is the production disclosure site.
	DefaultBaseURL = "https://disclosures.utah.gov"

	// DefaultUserAgent identifies this collector to the source.
	DefaultUserAgent = "utdisclosures/1.0"

	// DefaultTimeout is the default timeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes limits the size of fetched response bodies.
	DefaultMaxBodyBytes = 10 * 1024 * 1024 // 10 MB
)

// Transport tuning defaults.
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
)

// Status codes used when classifying responses.
const (
	statusOK           = 200
	statusNotFound     = 404
	statusTooManyReqs  = 429
	statusServerErrLow = 500
)

// Config configures a site client.
type Config struct {
	// BaseURL is the root of the disclosure site.
	BaseURL string
	// UserAgent is sent with every request.
	UserAgent string
	// Timeout specifies a time limit for requests made by this client.
	Timeout time.Duration
	// MaxBodyBytes limits how much of a response body is read.
	MaxBodyBytes int64
}

// Client is the HTTP client wrapper for the disclosure site. It holds
// the shared connection pool; Close releases idle connections at run
// end.
type Client struct {
	httpClient   *http.Client
	baseURL      *url.URL
	userAgent    string
	maxBodyBytes int64
	log          logger.Interface
}

// New creates a site client with standardized transport configuration.
func New(cfg Config, log logger.Interface) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	transport := &http.Transport{
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:      base,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
		log:          log,
	}, nil
}

// Close releases the client's idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// resolve turns a path or absolute reference into a full URL string.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", &PermanentError{Reason: fmt.Sprintf("invalid reference %q", ref), Err: err}
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

// get performs a GET request against ref (a path or absolute URL).
func (c *Client) get(ctx context.Context, ref string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, ref, "", nil)
}

// postForm performs a form-encoded POST request against ref.
func (c *Client) postForm(ctx context.Context, ref string, form url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodPost, ref, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
}

// do issues one request and classifies the response. A 5xx status, 429,
// or network-level error comes back as a TransientError; a 404 or any
// other unexpected status comes back as a PermanentError.
func (c *Client) do(
	ctx context.Context,
	method, ref, contentType string,
	body io.Reader,
) ([]byte, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}

	req, reqErr := http.NewRequestWithContext(ctx, method, target, body)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		// A cancelled run is not a site failure.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request aborted: %w", ctx.Err())
		}
		return nil, &TransientError{Reason: "network error", Err: doErr}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == statusTooManyReqs || resp.StatusCode >= statusServerErrLow:
		return nil, &TransientError{Reason: fmt.Sprintf("http status %d", resp.StatusCode)}
	case resp.StatusCode == statusNotFound:
		return nil, &PermanentError{Reason: "http status 404"}
	case resp.StatusCode != statusOK:
		return nil, &PermanentError{Reason: fmt.Sprintf("unexpected http status %d", resp.StatusCode)}
	}

	limited := io.LimitReader(resp.Body, c.maxBodyBytes)

	payload, readErr := io.ReadAll(limited)
	if readErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request aborted: %w", ctx.Err())
		}
		return nil, &TransientError{Reason: "read response body", Err: readErr}
	}

	c.log.Debug("fetched page", "method", method, "url", target, "bytes", len(payload))

	return payload, nil
}
