package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/glassd/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned while the breaker rejects calls.
var ErrUnavailable = errors.New("external service unavailable")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	Name      string
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	MinWait   time.Duration
	MaxWait   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
	Breaker   resilience.Settings
	Logger    *zap.Logger
}

// DefaultOptions returns options for a lenient external API.
func DefaultOptions(name string) Options {
	return Options{
		Name:    name,
		Timeout: 5 * time.Second,
		Retries: 2,
		MinWait: 200 * time.Millisecond,
		MaxWait: 2 * time.Second,
		Breaker: resilience.Settings{
			MaxProbes: 1,
			Window:    time.Minute,
			Cooldown:  30 * time.Second,
			ShouldTrip: func(c resilience.Counts) bool {
				return c.ConsecutiveFailures >= 3 ||
					(c.Requests >= 10 && float64(c.TotalFailures)/float64(c.Requests) > 0.7)
			},
		},
	}
}

// Client wraps resty over a retrying transport, with a rate limiter and a
// circuit breaker in front.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	log     *zap.Logger
}

// New builds a Client from opts.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("client", opts.Name))

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = opts.MinWait
	retryClient.RetryWaitMax = opts.MaxWait
	retryClient.Logger = leveledLogger{log.Sugar()}

	r := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "glassd/1.0").
		SetHeader("Accept", "application/json")
	if opts.BaseURL != "" {
		r.SetBaseURL(opts.BaseURL)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	settings := opts.Breaker
	userHook := settings.OnStateChange
	settings.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
		if userHook != nil {
			userHook(name, from, to)
		}
	}

	return &Client{
		resty:   r,
		limiter: limiter,
		breaker: resilience.New(opts.Name, settings),
		log:     log,
	}
}

// GetJSON issues a GET and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query map[string]string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	err := c.breaker.Call(func() error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetResult(out).
			Get(path)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return &StatusError{Code: resp.StatusCode(), Body: truncate(resp.String(), 200)}
		}
		return nil
	})

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrUnavailable, c.breaker.Name())
	}
	return err
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// SetHeader adds a default header.
func (c *Client) SetHeader(key, value string) {
	c.resty.SetHeader(key, value)
}

// HTTPClient exposes the underlying standard client.
func (c *Client) HTTPClient() *http.Client {
	return c.resty.GetClient()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// leveledLogger routes retryablehttp's logging into zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
