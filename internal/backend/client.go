// Package backend is the HTTP+JSON client for the network monitor server.
package backend

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
	"time"

	"github.com/google/uuid"

	"speedwatch/internal/history"
	"speedwatch/internal/model"
	"speedwatch/internal/speedtest"
	"speedwatch/internal/util"
)

const defaultUserAgent = "speedwatch"

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, msg)
}

// Is lets a 409 answer match speedtest.ErrConflict.
func (e *StatusError) Is(target error) bool {
	return target == speedtest.ErrConflict && e.Code == http.StatusConflict
}

// Client talks to one backend instance. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	logger    *slog.Logger
	userAgent string
	newID     func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithLogger sets the structured logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New builds a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := util.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{base: u}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c, nil
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type startBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StartJob implements speedtest.Backend.
func (c *Client) StartJob(ctx context.Context) error {
	var body startBody
	if err := c.doJSON(ctx, http.MethodPost, "/run_speedtest", nil, &body); err != nil {
		return err
	}
	if !body.Success {
		msg := body.Message
		if msg == "" {
			msg = "no reason given"
		}
		return fmt.Errorf("server did not start the test: %s", msg)
	}
	return nil
}

type statusBody struct {
	Status   string              `json:"status"`
	Progress string              `json:"progress"`
	Data     *model.Measurements `json:"data"`
	Error    *string             `json:"error"`
}

// PollStatus implements speedtest.Backend.
func (c *Client) PollStatus(ctx context.Context) (speedtest.StatusReport, error) {
	var body statusBody
	if err := c.doJSON(ctx, http.MethodGet, "/speedtest_status", nil, &body); err != nil {
		return speedtest.StatusReport{}, err
	}
	if body.Status == "" {
		return speedtest.StatusReport{}, errors.New("GET /speedtest_status: response has no status")
	}
	rep := speedtest.StatusReport{
		Status:   speedtest.Status(strings.ToLower(body.Status)),
		Progress: body.Progress,
	}
	if body.Data != nil {
		rep.Data = *body.Data
	}
	if body.Error != nil {
		rep.Error = *body.Error
	}
	return rep, nil
}

// LiveSpeed returns the server's most recent throughput sample.
func (c *Client) LiveSpeed(ctx context.Context) (model.LiveSpeed, error) {
	var s model.LiveSpeed
	err := c.doJSON(ctx, http.MethodGet, "/get_speed", nil, &s)
	return s, err
}

// History lists stored measurements, newest first.
func (c *Client) History(ctx context.Context, f history.Filter) ([]model.HistoryRecord, error) {
	q := url.Values{}
	q.Set("time_range", string(f.Range))
	q.Set("type", f.TypeParam())
	var recs []model.HistoryRecord
	if err := c.doJSON(ctx, http.MethodGet, "/get_history", q, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

type messageBody struct {
	Message string `json:"message"`
}

// ClearHistory deletes every stored measurement and returns the server's message.
func (c *Client) ClearHistory(ctx context.Context) (string, error) {
	var body messageBody
	if err := c.doJSON(ctx, http.MethodPost, "/clear_history", nil, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// ExportCSV streams the server's CSV export into w unchanged.
func (c *Client) ExportCSV(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/export_csv", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("GET /export_csv: read body: %w", err)
	}
	return n, nil
}

type ipBody struct {
	model.IPInfo
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MyIP returns the backend's public address and geolocation.
func (c *Client) MyIP(ctx context.Context) (model.IPInfo, error) {
	var body ipBody
	if err := c.doJSON(ctx, http.MethodGet, "/get_my_ip", nil, &body); err != nil {
		return model.IPInfo{}, err
	}
	if !body.Success {
		msg := body.Error
		if msg == "" {
			msg = "lookup failed"
		}
		return model.IPInfo{}, fmt.Errorf("GET /get_my_ip: %s", msg)
	}
	return body.IPInfo, nil
}

// Ping checks that the server answers API requests.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.LiveSpeed(ctx)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, out any) error {
	resp, err := c.do(ctx, method, path, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// do sends the request and returns the response for 2xx codes only.
func (c *Client) do(ctx context.Context, method, path string, q url.Values) (*http.Response, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader([]byte("{}"))
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	reqID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("backend request", "method", method, "path", path, "request_id", reqID,
		"status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	return resp, nil
}

// errorMessage extracts "message" or "error" from a JSON error body.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

var _ speedtest.Backend = (*Client)(nil)
