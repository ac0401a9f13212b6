// Package backend is the HTTP client for the spreadsheet backend: one Apps
// Script endpoint answering GET reads and text/plain POST actions.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/connlog"
	"github.com/horizonprm/horizon/internal/errors"
	"github.com/horizonprm/horizon/internal/logging"
	"github.com/horizonprm/horizon/internal/metrics"
)

// notConfiguredURL is what the connection log shows when no endpoint is set.
const notConfiguredURL = "N/A"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 32 << 20

// Client talks to the backend endpoint. A Client with an empty URL is valid
// and reports itself as not configured.
type Client struct {
	url     string
	http    *http.Client
	connlog *connlog.Logger
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero leaves requests unbounded. The
// timeout is set on a copy, so a shared client passed to WithHTTPClient
// is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithConnLog records every attempt in l.
func WithConnLog(l *connlog.Logger) Option {
	return func(c *Client) { c.connlog = l }
}

// WithLogger sets the zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(l) }
}

// New creates a client for endpoint. Options apply in order, so
// WithHTTPClient should precede WithTimeout.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		url:  strings.TrimSpace(endpoint),
		http: &http.Client{},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.connlog == nil {
		c.connlog = connlog.New(0, c.log)
	}
	return c
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool {
	return c.url != ""
}

// URL returns the configured endpoint.
func (c *Client) URL() string {
	return c.url
}

// ConnLog returns the connection log the client records into.
func (c *Client) ConnLog() *connlog.Logger {
	return c.connlog
}

// request describes one backend call.
type request struct {
	label   string // metrics label
	action  string // ?action= value for GET requests
	method  string
	query   url.Values
	body    any
	pending string // connection-log message before sending
}

// do sends req and returns the response body. HTML responses, non-2xx
// statuses and transport failures become typed errors and are recorded in
// the connection log.
func (c *Client) do(ctx context.Context, req request) (body []byte, err error) {
	metricAction := req.label
	if metricAction == "" {
		metricAction = req.action
	}
	if !c.Configured() {
		c.connlog.AddLog(connlog.TypeError, req.method, notConfiguredURL, errors.NewNotConfigured().Message, nil)
		return nil, errors.NewNotConfigured()
	}

	target := c.url
	if len(req.query) > 0 || req.action != "" {
		u, perr := url.Parse(c.url)
		if perr != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid backend URL: %v", perr))
		}
		q := u.Query()
		if req.action != "" {
			q.Set("action", req.action)
		}
		for k, vs := range req.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	var reader io.Reader
	if req.body != nil {
		data, merr := json.Marshal(req.body)
		if merr != nil {
			return nil, errors.NewInternal(merr)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid backend request: %v", err))
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		// text/plain keeps Apps Script from demanding a CORS preflight.
		httpReq.Header.Set("Content-Type", "text/plain;charset=utf-8")
	}

	if req.pending != "" {
		c.connlog.AddLog(connlog.TypeInfo, req.method, c.url, req.pending, nil)
	}

	start := time.Now()
	defer func() {
		metrics.ObserveBackend(metricAction, start, err)
		if err != nil {
			c.connlog.AddLog(connlog.TypeError, req.method, c.url, errors.As(err).Message,
				map[string]any{"action": metricAction, "request_id": requestID})
		}
	}()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.NewUpstream(fmt.Sprintf("Network Error: %v", err))
	}
	defer resp.Body.Close()

	if isHTML(resp.Header.Get("Content-Type")) {
		return nil, errors.NewAccessDenied()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewHTTPStatus(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewUpstream(fmt.Sprintf("Network Error: %v", err))
	}

	c.log.Debug("backend request complete",
		zap.String("action", metricAction),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// decode unmarshals a JSON response body into v.
func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewUpstream(fmt.Sprintf("invalid JSON from backend: %v", err))
	}
	return nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mt == "text/html"
}

func (c *Client) success(method, message string) {
	c.connlog.AddLog(connlog.TypeSuccess, method, c.url, message, nil)
}
