package http

import (
	"context"
	nethttp "net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/logging"
)

type idempotentKey struct{}

// WithIdempotent marks requests made with ctx as safe to retry.
// Reads and searches are marked; record creation and upload steps are not.
func WithIdempotent(ctx context.Context) context.Context {
	return context.WithValue(ctx, idempotentKey{}, true)
}

// IsIdempotent reports whether ctx was marked with WithIdempotent.
func IsIdempotent(ctx context.Context) bool {
	v, _ := ctx.Value(idempotentKey{}).(bool)
	return v
}

// CheckRetry applies the default retry policy (connection errors, 429, 5xx)
// to idempotent requests only. Anything else is returned to the caller after one attempt.
func CheckRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if !IsIdempotent(ctx) {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// NewRetryClient wraps base with retry logic. The final response is always passed
// through to the caller so API error bodies can be read after the last attempt.
func NewRetryClient(base *nethttp.Client, logger *logging.Logger) *retryablehttp.Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = constants.MaxRetries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.CheckRetry = CheckRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{logger: logger.Named("retry")}
	return retryClient
}

// NewRetryTransport returns a RoundTripper backed by NewRetryClient, for use
// underneath other transports such as oauth2.Transport.
func NewRetryTransport(base *nethttp.Client, logger *logging.Logger) nethttp.RoundTripper {
	return &retryablehttp.RoundTripper{Client: NewRetryClient(base, logger)}
}

// retryLogger implements the retryablehttp.LeveledLogger interface on top of zerolog
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// retryablehttp logs every attempt at info; keep those at debug
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
