package autotrade

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
)

// SleepFunc waits between attempts. It returns early with ctx's error when
// ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type options struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	delay      time.Duration
	sleep      SleepFunc
	logger     *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		baseURL:  constants.DefaultAPIURL,
		attempts: constants.DefaultRetryCount,
		delay:    constants.DefaultRetryDelay,
		sleep:    sleepContext,
		logger:   logging.Default(),
	}
}

// Option is a function that configures a Client.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithBaseURL sets the API endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return &errors.ValidationError{Field: "api_url", Message: "cannot be empty"}
		}
		o.baseURL = url
		return nil
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) error {
		o.httpClient = client
		return nil
	}
}

// WithRetry sets the total number of attempts per request and the fixed delay
// between them.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *options) error {
		if attempts < 1 {
			return &errors.ValidationError{Field: "retry_count", Value: attempts, Message: "must be at least 1"}
		}
		if delay < 0 {
			return &errors.ValidationError{Field: "retry_delay", Value: delay, Message: "cannot be negative"}
		}
		o.attempts = attempts
		o.delay = delay
		return nil
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(o *options) error {
		if sleep == nil {
			return &errors.ValidationError{Field: "sleep", Message: "cannot be nil"}
		}
		o.sleep = sleep
		return nil
	}
}

// WithLogger sets the logger for attempt failures and request tracing.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
