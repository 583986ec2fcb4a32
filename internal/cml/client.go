// Package cml is the single place that talks to the Cloudera AI/ML REST API.
// Every tool goes through Client.Do, which normalizes the host, attaches the
// bearer token, retries transient failures on idempotent verbs and turns the
// outcome into either decoded JSON or an *Error.
package cml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/config"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/httpcache"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/logging"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/metrics"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
	maxResponseBytes  = 32 << 20
	userAgent         = "cloudera-ml-mcp"
)

// Request describes one API call. Path is already expanded and starts with
// "/api/". Body is JSON-encoded when non-nil; Multipart takes precedence.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Multipart *Multipart
}

type Client struct {
	cfg     config.Config
	http    *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter

	retries    uint
	retryDelay time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRetry sets the number of retries after the first attempt and the base
// backoff delay.
func WithRetry(retries uint, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.retryDelay = delay
	}
}

// WithRateLimit throttles outbound requests. rps <= 0 means unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func New(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		log:        zap.NewNop(),
		limiter:    rate.NewLimiter(rate.Inf, 0),
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = config.DefaultTimeout
		}
		base := http.DefaultTransport.(*http.Transport).Clone()
		c.http = &http.Client{
			Timeout:   timeout,
			Transport: httpcache.NewTransport(base, cfg.Cache, c.metrics.ObserveCache),
		}
	}
	return c
}

// Config returns the configuration the client was built with.
func (c *Client) Config() config.Config { return c.cfg }

// WithConfig returns a client sharing the transport but using cfg for host,
// credentials and default project.
func (c *Client) WithConfig(cfg config.Config) *Client {
	cp := *c
	cp.cfg = cfg
	return &cp
}

// Do performs req and returns the decoded JSON body. A 204 or an empty body
// yields (nil, nil).
func (c *Client) Do(ctx context.Context, req Request) (any, error) {
	base := config.NormalizeHost(c.cfg.Host)
	if base == "" {
		return nil, MissingConfig("host")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, MissingConfig("api_key")
	}

	method := strings.ToUpper(req.Method)
	u := base + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, Message: "Failed to encode request body", Err: err}
	}

	log := c.log
	if l, ok := logging.Lookup(ctx); ok {
		log = l
	}

	attempts := uint(1)
	if idempotent(method) {
		attempts += c.retries
	}

	var out any
	err = retry.Do(
		func() error {
			var aerr error
			out, aerr = c.attempt(ctx, log, method, u, body, contentType)
			return aerr
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= attempts {
				return
			}
			c.metrics.ObserveRetry()
			log.Warn("retrying cloudera request",
				zap.String(logging.FieldMethod, method),
				zap.String(logging.FieldPath, req.Path),
				zap.Uint(logging.FieldAttempt, n+1),
				zap.Error(err))
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && KindOf(err) == KindUnexpected {
			return nil, transportError(ctxErr)
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) attempt(ctx context.Context, log *zap.Logger, method, u string, body []byte, contentType string) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportError(err)
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, Message: "Failed to build request", Err: err}
	}
	hreq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	hreq.Header.Set("Content-Type", contentType)
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		c.metrics.ObserveUpstream(method, 0, time.Since(start))
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	c.metrics.ObserveUpstream(method, resp.StatusCode, elapsed)
	log.Debug("cloudera request",
		zap.String(logging.FieldMethod, method),
		zap.String(logging.FieldPath, hreq.URL.Path),
		zap.Int(logging.FieldStatusCode, resp.StatusCode),
		zap.Duration(logging.FieldDuration, elapsed))
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, resp.Header.Get("Content-Type"), b)
	}
	return decodeSuccess(resp.StatusCode, resp.Header.Get("Content-Type"), b)
}

func encodeBody(req Request) ([]byte, string, error) {
	if req.Multipart != nil {
		return req.Multipart.encode()
	}
	if req.Body == nil {
		return nil, "application/json", nil
	}
	b, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", err
	}
	return b, "application/json", nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ContextError classifies a canceled or expired context the way Do does, so
// multi-request operations report cancellation consistently.
func ContextError(err error) *Error { return transportError(err) }

func transportError(err error) *Error {
	var nerr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindTransport, Message: "Request canceled", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &nerr) && nerr.Timeout():
		return &Error{Kind: KindTimeout, Message: "Request timeout", Details: err.Error(), Err: err, retryable: true}
	default:
		return &Error{Kind: KindTransport, Message: "Connection error", Details: err.Error(), Err: err, retryable: true}
	}
}

func statusError(status int, contentType string, body []byte) *Error {
	e := &Error{
		Kind:      KindHTTPStatus,
		Status:    status,
		retryable: retryableStatus(status),
	}

	var text string
	if isHTML(contentType, body) {
		text = htmlTitle(body)
	} else if len(bytes.TrimSpace(body)) > 0 {
		var parsed any
		if err := decodeJSON(body, &parsed); err == nil {
			text = remoteMessage(parsed)
			e.Details = remoteDetails(parsed)
		} else {
			text = truncate(strings.TrimSpace(string(body)), 300)
		}
	}

	if text != "" {
		e.Message = fmt.Sprintf("API error (HTTP %d): %s", status, text)
	} else {
		e.Message = fmt.Sprintf("HTTP error: %d", status)
	}
	if hint := authHint(status); hint != "" {
		e.Message += ". " + hint
	}
	return e
}

func decodeSuccess(status int, contentType string, body []byte) (any, error) {
	if status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if isHTML(contentType, body) {
		msg := "Invalid response format: received an HTML page"
		if title := htmlTitle(body); title != "" {
			msg += fmt.Sprintf(" (%s)", title)
		}
		return nil, &Error{Kind: KindMalformedResponse, Status: status, Message: msg}
	}

	var out any
	if err := decodeJSON(body, &out); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Status: status, Message: "Invalid response format", Err: err}
	}
	if m, ok := out.(map[string]any); ok {
		if apiErr, has := m["error"]; has && apiErr != nil {
			msg := remoteMessage(m)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, &Error{Kind: KindHTTPStatus, Status: status, Message: "API error: " + msg, Details: apiErr}
		}
	}
	return out, nil
}

func decodeJSON(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// remoteMessage digs the human-readable text out of the shapes the API uses:
// {"error":{"message":...}}, {"error":"..."} and {"message":...}.
func remoteMessage(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	switch e := m["error"].(type) {
	case map[string]any:
		if s, ok := e["message"].(string); ok && s != "" {
			return s
		}
	case string:
		if e != "" {
			return e
		}
	}
	if s, ok := m["message"].(string); ok {
		return s
	}
	return ""
}

func remoteDetails(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if e, ok := m["error"]; ok && e != nil {
		return e
	}
	return m
}

func authHint(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Check CLOUDERA_ML_API_KEY"
	case http.StatusForbidden:
		return "The API key lacks access to this resource"
	}
	return ""
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
