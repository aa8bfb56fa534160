// Package kernel implements the HTTP client for the execution collaborator:
// the local companion process that runs code, resolves workspace paths, and
// writes notebook files to disk on the editor's behalf.
//
// The client is deliberately thin. It speaks plain JSON over HTTP, retries
// transient failures with backoff, caches slow read endpoints (directory
// listings, recent files), and maps collaborator error responses onto the
// structured error codes the rest of the application understands - including
// the resolved absolute path the collaborator reports when a workspace path
// does not exist, surfaced as an error hint.
package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/canvasnote/canvasnote/pkg/cache"
	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/httputil"
	"github.com/canvasnote/canvasnote/pkg/observability"
)

// DefaultTimeout is the per-request timeout when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config configures a collaborator client.
type Config struct {
	// BaseURL is the collaborator endpoint, e.g. "http://127.0.0.1:8787".
	BaseURL string

	// Timeout applies per request. Execution requests additionally honor the
	// caller's context deadline. Zero selects DefaultTimeout.
	Timeout time.Duration

	// Cache holds responses from slow read endpoints. Nil disables caching.
	Cache *httputil.Cache

	// Keyer builds cache keys. Nil selects the default scheme.
	Keyer cache.Keyer

	// Logger receives client diagnostics. Nil discards them.
	Logger *log.Logger
}

// Client is the collaborator HTTP client. Safe for concurrent use.
type Client struct {
	baseURL string
	host    string
	http    *http.Client
	cache   *httputil.Cache
	keyer   cache.Keyer
	logger  *log.Logger
}

// NewClient validates the configuration and creates a client.
func NewClient(cfg Config) (*Client, error) {
	if err := errors.ValidateURL(cfg.BaseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse collaborator URL")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	keyer := cfg.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		host:    u.Host,
		http:    &http.Client{Timeout: timeout},
		cache:   cfg.Cache,
		keyer:   keyer,
		logger:  logger,
	}, nil
}

// apiError is the collaborator's error response body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"` // resolved absolute path, when relevant
}

// cached serves v from the cache when possible, otherwise fetches with retry
// and stores the result. refresh bypasses the cache entirely.
func (c *Client) cached(ctx context.Context, ns, key string, refresh bool, v any, fetch func() error) error {
	if c.cache == nil {
		return httputil.RetryWithBackoff(ctx, fetch)
	}
	scoped := c.cache.Namespace(ns)
	if !refresh {
		if ok, _ := scoped.Get(key, v); ok {
			return nil
		}
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	_ = scoped.Set(key, v)
	return nil
}

// getJSON performs a GET against an API path and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, apiPath string, query url.Values, v any) error {
	u := c.baseURL + apiPath
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	return c.do(req, apiPath, v)
}

// postJSON performs a POST with a JSON body and decodes the response into v.
// v may be nil when the response body does not matter.
func (c *Client) postJSON(ctx context.Context, apiPath string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode request body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPath, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, apiPath, v)
}

func (c *Client) do(req *http.Request, apiPath string, v any) error {
	observability.HTTP().OnRequest(req.Context(), req.Method, c.host, apiPath)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(req.Context(), req.Method, c.host, apiPath, err)
		code := errors.ErrCodeNetwork
		if req.Context().Err() != nil || isTimeout(err) {
			code = errors.ErrCodeTimeout
		}
		return &httputil.RetryableError{Err: errors.Wrap(code, err, "collaborator request %s", apiPath)}
	}
	defer resp.Body.Close()

	observability.HTTP().OnResponse(req.Context(), req.Method, c.host, apiPath, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp, apiPath)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode collaborator response")
	}
	return nil
}

// statusError maps a non-200 response to a structured error, preferring the
// code carried in the collaborator's error body over the HTTP status.
func (c *Client) statusError(resp *http.Response, apiPath string) error {
	var body apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	msg := body.Message
	if msg == "" {
		msg = "collaborator returned status " + resp.Status
	}

	code := codeFromBody(body.Code)
	if code == "" {
		code = codeFromStatus(resp.StatusCode)
	}

	err := errors.New(code, "%s", msg)
	if body.Path != "" {
		err = err.WithHint("resolved path: " + body.Path)
	}
	if resp.StatusCode >= 500 {
		return &httputil.RetryableError{Err: err}
	}
	c.logger.Debug("collaborator error", "path", apiPath, "status", resp.StatusCode, "code", code)
	return err
}

func codeFromBody(raw string) errors.Code {
	switch errors.Code(raw) {
	case errors.ErrCodeDirNotFound, errors.ErrCodeNotADirectory, errors.ErrCodePermissionDenied,
		errors.ErrCodeNotFound, errors.ErrCodeDocumentNotFound, errors.ErrCodeExecFailed,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidInput:
		return errors.Code(raw)
	}
	return ""
}

func codeFromStatus(status int) errors.Code {
	switch status {
	case http.StatusNotFound:
		return errors.ErrCodeNotFound
	case http.StatusForbidden:
		return errors.ErrCodePermissionDenied
	case http.StatusConflict:
		return errors.ErrCodeNotADirectory
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return errors.ErrCodeTimeout
	default:
		return errors.ErrCodeNetwork
	}
}

func isTimeout(err error) bool {
	t, ok := err.(interface{ Timeout() bool })
	return ok && t.Timeout()
}
