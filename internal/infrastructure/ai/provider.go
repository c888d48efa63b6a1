// Package ai talks to the LLM providers behind the plant assistant.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/greenmap/plant-service/internal/infrastructure/metrics"
)

const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultMaxTokens   = 1024
	defaultBaseBackoff = 500 * time.Millisecond
)

// ErrNotConfigured is returned by New when AI_PROVIDER is none.
var ErrNotConfigured = errors.New("AI assistant not configured")

type Image struct {
	ContentType string
	Base64      string
}

// DataURI renders the image as a data: URI.
func (i *Image) DataURI() string {
	return "data:" + i.ContentType + ";base64," + i.Base64
}

type Request struct {
	System string
	Prompt string
	Image  *Image
}

type Completion struct {
	Text  string
	Model string
}

type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Completion, error)
}

type Options struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64 // requests per second
}

// New builds the configured provider wrapped with rate limiting and metrics.
func New(opts Options, logger *zap.Logger, m *metrics.Metrics) (Provider, error) {
	var p Provider
	switch opts.Provider {
	case ProviderNone, "":
		return nil, ErrNotConfigured
	case ProviderOpenAI:
		p = newOpenAIClient(opts)
	case ProviderAnthropic:
		p = newAnthropicClient(opts)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", opts.Provider)
	}
	logger.Info("AI provider configured", zap.String("provider", opts.Provider), zap.String("model", opts.Model))
	return &limitedProvider{
		next:    p,
		limiter: newLimiter(opts.RateLimit),
		timeout: opts.Timeout,
		metrics: m,
	}, nil
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

type limitedProvider struct {
	next    Provider
	limiter *rate.Limiter
	timeout time.Duration
	metrics *metrics.Metrics
}

func (l *limitedProvider) Name() string { return l.next.Name() }

func (l *limitedProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	out, err := l.next.Complete(ctx, req)
	if l.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		l.metrics.AIRequestsTotal.WithLabelValues(l.next.Name(), outcome).Inc()
	}
	return out, err
}

// retryableError marks failures worth another attempt: network errors, 429 and 5xx.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryableError(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// withRetries runs fn until it succeeds, fails terminally or attempts run out.
func withRetries(ctx context.Context, maxRetries int, baseBackoff time.Duration, fn func() (*Completion, error)) (*Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
