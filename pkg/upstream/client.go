package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	"github.com/noah-isme/lhu-dashboard-api/pkg/config"
)

const (
	EndpointSchedule = "schedule"
	EndpointExams    = "exams"

	defaultTimeout = 10 * time.Second
	defaultRecheck = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// Observer receives the latency and outcome of each upstream call.
type Observer interface {
	ObserveUpstream(endpoint string, duration time.Duration, err error)
}

// StatusError is returned when the university API answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.StatusCode)
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token so it is forwarded upstream.
func WithToken(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token attached by WithToken, if any.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client talks to the university schedule and exam APIs.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
	recheck  time.Duration
	now      func() time.Time

	// failedAt holds the unix nanos of the last transport failure, zero while reachable.
	failedAt atomic.Int64
}

// Option customises a Client.
type Option func(*Client)

// WithClock replaces the wall clock used to age out the offline state.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a client for cfg. Requests go through the proxy when one is configured.
func NewClient(cfg config.UpstreamConfig, observer Observer, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := cfg.SchoolBaseURL
	if cfg.ProxyBaseURL != "" {
		base = cfg.ProxyBaseURL
	}
	recheck := cfg.RecheckInterval
	if recheck <= 0 {
		recheck = defaultRecheck
	}
	c := &Client{
		baseURL:  strings.TrimRight(base, "/"),
		http:     &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger,
		recheck:  recheck,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Online reports whether the upstream should be tried. A transport failure marks it offline
// for the recheck interval; afterwards callers go back to the network, and the next request
// settles the state again. A fresh client assumes it is reachable.
func (c *Client) Online() bool {
	failedAt := c.failedAt.Load()
	if failedAt == 0 {
		return true
	}
	return c.now().Sub(time.Unix(0, failedAt)) >= c.recheck
}

// FetchSchedule returns the weekly schedule of a student.
func (c *Client) FetchSchedule(ctx context.Context, studentID string) (models.StudentSchedule, error) {
	var out models.StudentSchedule
	if err := c.get(ctx, EndpointSchedule, "/students/"+url.PathEscape(studentID)+"/schedule", &out); err != nil {
		return models.StudentSchedule{}, err
	}
	if out.StudentID == "" {
		out.StudentID = studentID
	}
	return out, nil
}

// FetchExams returns the exam sittings of a student.
func (c *Client) FetchExams(ctx context.Context, studentID string) (models.StudentExams, error) {
	var out models.StudentExams
	if err := c.get(ctx, EndpointExams, "/students/"+url.PathEscape(studentID)+"/exams", &out); err != nil {
		return models.StudentExams{}, err
	}
	if out.StudentID == "" {
		out.StudentID = studentID
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, dest interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveUpstream(endpoint, time.Since(start), err)
		}
	}()

	if c.baseURL == "" {
		return errors.New("upstream base URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			c.failedAt.Store(c.now().UnixNano())
		}
		c.logger.Warn("upstream request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.failedAt.Store(0)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s body: %w", endpoint, err)
	}
	return decodeBody(body, dest)
}

// decodeBody accepts either a bare payload or one wrapped in a {"data": ...} envelope.
func decodeBody(body []byte, dest interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		body = envelope.Data
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode upstream payload: %w", err)
	}
	return nil
}
