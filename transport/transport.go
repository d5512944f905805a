package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/siteforge-io/siteforge-go/download"
	"github.com/siteforge-io/siteforge-go/throttle"
)

// Client issues authenticated JSON requests against a single API base URL.
// It wraps the std-lib *http.Client, which can be customized via
// optional funcs. A Client is immutable after Build and safe for
// concurrent use.
type Client struct {
	baseURL *url.URL
	apiKey  string
	c       *http.Client
	logger  *slog.Logger
	tracer  tracer
}

// Build constructs a Client for the given API base URL and key.
func Build(baseURL, apiKey string, optFns ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key must not be empty")
	}
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	// Each Client owns its http.Client; mutating a shared
	// http.DefaultClient would cross-wire credentials between
	// transports built with different keys.
	client := &Client{
		baseURL: base,
		apiKey:  apiKey,
		c:       &http.Client{},
		logger:  slog.Default(),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying transport option: %w", err)
		}
	}

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	client.tracer = newTracer(opts.tracer)

	var rt http.RoundTripper
	switch {
	case opts.rt != nil:
		rt = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		rt = opts.client.Transport
	default:
		rt = http.DefaultTransport
	}
	if opts.userAgent != "" {
		rt = userAgent{value: opts.userAgent, base: rt}
	}
	rt = apiHeaders{key: apiKey, host: base.Host, base: rt}
	if opts.throttle != nil {
		rt, err = throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger }, rt)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
	}
	client.c.Transport = rt

	return client, nil
}

// Get issues a GET request and decodes the response into dest.
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	return c.Execute(ctx, http.MethodGet, path, nil, dest)
}

// Post issues a POST request with the given JSON body.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.Execute(ctx, http.MethodPost, path, body, dest)
}

// Put issues a PUT request with the given JSON body.
func (c *Client) Put(ctx context.Context, path string, body, dest any) error {
	return c.Execute(ctx, http.MethodPut, path, body, dest)
}

// Patch issues a PATCH request with the given JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, dest any) error {
	return c.Execute(ctx, http.MethodPatch, path, body, dest)
}

// Delete issues a DELETE request without a body.
func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	return c.Execute(ctx, http.MethodDelete, path, nil, dest)
}

// DeleteWithBody issues a DELETE request carrying a JSON body, for
// endpoints that require one (bulk deletes).
func (c *Client) DeleteWithBody(ctx context.Context, path string, body, dest any) error {
	return c.Execute(ctx, http.MethodDelete, path, body, dest)
}

// Execute performs a single attempt of the given request and decodes a
// 2xx response into dest when dest is non-nil. Non-2xx responses are
// classified into an *APIError before the success path is considered;
// requests that never produce a response yield a *NetworkError. The
// transport never retries.
func (c *Client) Execute(ctx context.Context, method, path string, body, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parsing request path %q: %w", path, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var payload io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request payload: %w", err)
		}
		payload = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), payload)
	if err != nil {
		return fmt.Errorf("instantiating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// Some server frameworks reject a JSON content type on an empty
	// body, so the header is coupled to the body's presence.
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	ctx, span := c.tracer.start(ctx, "transport.execute",
		attribute.String("http.method", method),
		attribute.String("url.path", reqURL.Path),
	)
	defer span.End()
	req = req.WithContext(ctx)

	resp, err := c.c.Do(req)
	if err != nil {
		span.RecordError(err)
		return &NetworkError{URL: reqURL.String(), Err: err}
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err := io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp)
	}

	if dest == nil {
		return nil
	}
	discardBody = false
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// Download streams the body of rawURL to destPath. Artifact URLs may
// point at hosts other than the API; the bearer token is only attached
// when the host matches (see apiHeaders).
func (c *Client) Download(ctx context.Context, rawURL, destPath string, optFns ...download.Option) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("instantiating download request: %w", err)
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return &NetworkError{URL: rawURL, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close download body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return classify(resp)
	}

	if err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, c.logger, optFns...); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	return nil
}

// DownloadAsync starts Download in a goroutine managed by queue and
// returns a handle for awaiting its completion.
func (c *Client) DownloadAsync(ctx context.Context, queue *download.Queue, rawURL, destPath string, optFns ...download.Option) *download.Result {
	return queue.Start(ctx, func(ctx context.Context) error {
		return c.Download(ctx, rawURL, destPath, optFns...)
	})
}

// Path joins a request path with encoded query parameters.
func Path(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("base url must not be empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", raw)
	}
	return u, nil
}
