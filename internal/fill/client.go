package fill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CloudNativeWorks/fillfetch/pkg/errdefs"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://fill.papermc.io/v3"
	maxBackoff     = 30 * time.Second
	maxErrorBody   = 4096
)

// Config is the index connection configuration.
type Config struct {
	BaseURL   string
	UserAgent string
	// RateLimit is the maximum number of requests per second; zero disables pacing.
	RateLimit float64
	// RetryAttempts is the total number of attempts per request; values below 1 mean 1.
	RetryAttempts int
	RetryBackoff  time.Duration
	Timeout       time.Duration
}

// HTTPClient is the subset of *http.Client used by the index client and the downloader.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestID overrides the generated run identifier.
func WithRequestID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.requestID = id
		}
	}
}

// Client queries the build index. Calls are sequential; a Client is not meant
// to be shared between concurrent runs.
type Client struct {
	cfg        Config
	httpClient HTTPClient
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Entry
	requestID  string
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logrus.WithField("component", "fill-client"),
		requestID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fill-index",
		Timeout: maxBackoff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// A 404 is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errdefs.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warnf("Circuit breaker %s changed from %v to %v", name, from, to)
		},
	})
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// RequestID is the identifier sent with every request of this client.
func (c *Client) RequestID() string { return c.requestID }

// NewRequest builds a GET request carrying the client identification headers.
func (c *Client) NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("X-Request-Id", c.requestID)
	return req, nil
}

// GetProject fetches the version groups of a project.
func (c *Client) GetProject(ctx context.Context, project Project) (*ProjectInfo, error) {
	endpoint := fmt.Sprintf("%s/projects/%s", c.cfg.BaseURL, url.PathEscape(string(project)))

	var info ProjectInfo
	if err := c.getJSON(ctx, "fetch project", endpoint, &info); err != nil {
		return nil, err
	}
	c.logger.WithFields(logrus.Fields{
		"project": project,
		"groups":  len(info.Versions),
	}).Debug("Fetched project metadata")
	return &info, nil
}

// GetBuilds fetches the build list of a project version.
func (c *Client) GetBuilds(ctx context.Context, project Project, version string) (BuildList, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/versions/%s/builds",
		c.cfg.BaseURL, url.PathEscape(string(project)), url.PathEscape(version))

	var builds BuildList
	if err := c.getJSON(ctx, "fetch builds", endpoint, &builds); err != nil {
		return nil, err
	}
	c.logger.WithFields(logrus.Fields{
		"project": project,
		"version": version,
		"builds":  len(builds),
	}).Debug("Fetched build list")
	return builds, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, out any) error {
	var err error
	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		_, err = c.breaker.Execute(func() (interface{}, error) {
			return nil, c.fetchJSON(ctx, op, endpoint, out)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return errdefs.Networkf(op, err, "index %s unavailable", c.cfg.BaseURL)
		}
		if err == nil || !errdefs.IsNetwork(err) || ctx.Err() != nil || attempt == c.cfg.RetryAttempts {
			return err
		}

		sleep := c.cfg.RetryBackoff * time.Duration(1<<uint(attempt-1))
		if sleep > maxBackoff {
			sleep = maxBackoff
		}
		c.logger.WithError(err).Warnf("Request failed (%d/%d), retrying in %v", attempt, c.cfg.RetryAttempts, sleep)
		select {
		case <-ctx.Done():
			return errdefs.Networkf(op, ctx.Err(), "request to %s cancelled", endpoint)
		case <-time.After(sleep):
		}
	}
	return err
}

func (c *Client) fetchJSON(ctx context.Context, op, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errdefs.Networkf(op, err, "request to %s not sent", endpoint)
	}

	req, err := c.NewRequest(ctx, endpoint)
	if err != nil {
		return errdefs.Networkf(op, err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.WithField("url", endpoint).Debug("Querying index")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errdefs.Networkf(op, err, "request to %s failed", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errdefs.NotFoundf(op, "%s returned 404%s", endpoint, errorDetail(resp.Body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errdefs.Networkf(op, nil, "%s returned status %d%s", endpoint, resp.StatusCode, errorDetail(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errdefs.Networkf(op, err, "failed to decode response from %s", endpoint)
	}
	return nil
}

func errorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var apiErr apiError
	if err := json.Unmarshal(data, &apiErr); err == nil {
		if apiErr.Message != "" {
			return " (" + apiErr.Message + ")"
		}
		if apiErr.Error != "" {
			return " (" + apiErr.Error + ")"
		}
	}
	return ""
}
