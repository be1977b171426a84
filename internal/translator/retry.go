package translator

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"pdf-translator/internal/logger"
)

const (
	// DefaultMaxAttempts is the number of backend attempts per call
	DefaultMaxAttempts = 2
	// BaseRetryDelay is the delay before the first retry; it doubles on each attempt
	BaseRetryDelay = 2 * time.Second
	// MaxRetryDelay caps the backoff delay
	MaxRetryDelay = 30 * time.Second
)

// RetryConfig configures a RetryingTranslator.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      logger.Logger

	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// RetryingTranslator retries retryable backend errors with exponential backoff.
type RetryingTranslator struct {
	next Translator
	cfg  RetryConfig
	log  logger.Logger
}

// NewRetryingTranslator wraps next with retry handling.
func NewRetryingTranslator(next Translator, cfg RetryConfig) *RetryingTranslator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = BaseRetryDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = MaxRetryDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	return &RetryingTranslator{next: next, cfg: cfg, log: logger.OrGlobal(cfg.Logger)}
}

// Translate implements Translator.
func (t *RetryingTranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= t.cfg.MaxAttempts; attempt++ {
		translated, err := t.next.Translate(ctx, text, src, dst)
		if err == nil {
			return translated, nil
		}
		lastErr = err

		if !isRetryableError(err) || ctx.Err() != nil {
			return "", err
		}
		if attempt == t.cfg.MaxAttempts {
			break
		}

		delay := t.backoff(attempt)
		t.log.Warn("translation attempt failed, retrying",
			logger.Int("attempt", attempt),
			logger.String("delay", delay.String()),
			logger.Err(err))
		if err := t.cfg.Sleep(ctx, delay); err != nil {
			return "", lastErr
		}
	}

	return "", lastErr
}

func (t *RetryingTranslator) backoff(attempt int) time.Duration {
	delay := t.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= t.cfg.MaxDelay {
			return t.cfg.MaxDelay
		}
	}
	return delay
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

// isRetryableError determines if an error should trigger a retry.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "too many requests",
		"status code: 5", "status 5", "bad gateway", "service unavailable",
		"timeout", "connection reset", "connection refused", "eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
