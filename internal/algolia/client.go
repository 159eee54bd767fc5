// File: internal/algolia/client.go
package algolia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"replisync/internal/errs"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond keeps bulk replica updates well under the plan's write quota.
	DefaultRequestsPerSecond = 10.0

	DefaultMaxRetries    = 3
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultTaskPoll      = 500 * time.Millisecond
	DefaultTaskTimeout   = 2 * time.Minute

	TaskPublished = "published"
)

// APIError is a non-2xx response from the search API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return e.Message
}

// IsNotFound reports whether err is a 404 from the search API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Settings is the subset of index settings the replica manager reads
type Settings struct {
	Replicas      []string `json:"replicas"`
	CustomRanking []string `json:"customRanking"`
}

// SettingsUpdate is sent as-is, so an empty slice clears a setting
type SettingsUpdate map[string]interface{}

// Client is a rate-limited, retrying client for the Algolia REST API built on a single resty client
type Client struct {
	readHosts     []string
	writeHosts    []string
	rest          *resty.Client
	limiter       *rate.Limiter
	maxRetries    int
	retryInterval time.Duration
	taskPoll      time.Duration
	taskTimeout   time.Duration
	logger        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHosts replaces both read and write hosts (for proxies and testing).
func WithHosts(hosts ...string) ClientOption {
	return func(c *Client) {
		if len(hosts) > 0 {
			c.readHosts = hosts
			c.writeHosts = hosts
		}
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.rest.SetTimeout(d)
		}
	}
}

func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetryInterval sets the initial backoff interval between retries.
func WithRetryInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryInterval = d
	}
}

// WithTaskPolling sets how often and how long WaitTask polls.
func WithTaskPolling(interval, timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.taskPoll = interval
		c.taskTimeout = timeout
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the given application. Reads go to the DSN host,
// writes to the primary host, and both fall back to the algolianet.com hosts.
func NewClient(appID, apiKey string, opts ...ClientOption) *Client {
	fallbacks := []string{
		fmt.Sprintf("https://%s-1.algolianet.com", appID),
		fmt.Sprintf("https://%s-2.algolianet.com", appID),
		fmt.Sprintf("https://%s-3.algolianet.com", appID),
	}

	rest := resty.New().
		SetTimeout(DefaultTimeout).
		SetHeader("X-Algolia-Application-Id", appID).
		SetHeader("X-Algolia-API-Key", apiKey).
		SetHeader("Accept", "application/json")

	c := &Client{
		readHosts:     append([]string{fmt.Sprintf("https://%s-dsn.algolia.net", appID)}, fallbacks...),
		writeHosts:    append([]string{fmt.Sprintf("https://%s.algolia.net", appID)}, fallbacks...),
		rest:          rest,
		limiter:       rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		maxRetries:    DefaultMaxRetries,
		retryInterval: DefaultRetryInterval,
		taskPoll:      DefaultTaskPoll,
		taskTimeout:   DefaultTaskTimeout,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("component", "algolia")
	c.rest.SetLogger(restyLogger{logger: c.logger})
	return c
}

// GetSettings returns the settings of index. A missing index yields an *APIError with status 404.
func (c *Client) GetSettings(ctx context.Context, index string) (Settings, error) {
	var settings Settings
	err := c.do(ctx, http.MethodGet, indexPath(index, "settings"), nil, true, &settings)
	return settings, err
}

// SetSettings applies update to index without forwarding it to the index's replicas,
// and returns the task to wait for.
func (c *Client) SetSettings(ctx context.Context, index string, update SettingsUpdate) (int64, error) {
	var resp struct {
		TaskID int64 `json:"taskID"`
	}
	path := indexPath(index, "settings") + "?forwardToReplicas=false"
	if err := c.do(ctx, http.MethodPut, path, update, false, &resp); err != nil {
		return 0, err
	}
	return resp.TaskID, nil
}

// DeleteIndex deletes index; deleting a missing index is not an error and returns task 0.
func (c *Client) DeleteIndex(ctx context.Context, index string) (int64, error) {
	var resp struct {
		TaskID int64 `json:"taskID"`
	}
	err := c.do(ctx, http.MethodDelete, indexPath(index, ""), nil, false, &resp)
	if IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.TaskID, nil
}

// WaitTask blocks until taskID on index is published. Task 0 returns immediately.
func (c *Client) WaitTask(ctx context.Context, index string, taskID int64) error {
	if taskID == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	ticker := time.NewTicker(c.taskPoll)
	defer ticker.Stop()

	for {
		var resp struct {
			Status string `json:"status"`
		}
		if err := c.do(ctx, http.MethodGet, indexPath(index, fmt.Sprintf("task/%d", taskID)), nil, true, &resp); err != nil {
			return err
		}
		if resp.Status == TaskPublished {
			c.logger.Debug("Task published", "index", index, "task", taskID)
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for task %d on index %s: %w", taskID, index, ctx.Err())
		case <-ticker.C:
		}
	}
}

func indexPath(index, suffix string) string {
	p := "/1/indexes/" + url.PathEscape(index)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// do sends one logical request, rotating through hosts on network errors and 5xx/429
// responses. 4xx responses are permanent; a 400 is tagged as a bad request.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, read bool, out interface{}) error {
	hosts := c.writeHosts
	if read {
		hosts = c.readHosts
	}

	attempt := 0
	permanent := false
	operation := func() (struct{}, error) {
		host := hosts[attempt%len(hosts)]
		attempt++

		if err := c.limiter.Wait(ctx); err != nil {
			permanent = true
			return struct{}{}, backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		err := c.send(ctx, method, host+path, body, out)
		if err == nil {
			return struct{}{}, nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests {
			permanent = true
			if apiErr.Status == http.StatusBadRequest {
				return struct{}{}, backoff.Permanent(errs.Wrap(apiErr, errs.KindBadRequest))
			}
			return struct{}{}, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			permanent = true
			return struct{}{}, backoff.Permanent(ctx.Err())
		}

		c.logger.Debug("Retryable request failure", "method", method, "host", host, "path", path, "attempt", attempt, "error", err)
		return struct{}{}, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
	)
	if err != nil && !permanent && ctx.Err() == nil {
		return errs.Wrap(fmt.Errorf("unreachable hosts after %d attempts: %w", attempt, err), errs.KindExceededRetries)
	}
	return err
}

// errorBody is the JSON shape of an API error response
type errorBody struct {
	Message string `json:"message"`
}

// The API always answers JSON, but proxies and test servers do not always say so
func (c *Client) send(ctx context.Context, method, target string, body interface{}, out interface{}) error {
	var failure errorBody
	req := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetError(&failure)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	c.logger.Debug("Sending request", "method", method, "url", target)
	resp, err := req.Execute(method, target)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Message: failure.Message}
	}
	return nil
}

// restyLogger routes resty's own warnings into the client logger
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
