package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Common scraper errors
var (
	ErrNetworkTimeout    = errors.New("network request timed out")
	ErrParsingFailed     = errors.New("failed to parse flyer")
	ErrInvalidResponse   = errors.New("invalid response from store site")
	ErrRateLimited       = errors.New("rate limited by store site")
	ErrStoreUnavailable  = errors.New("store site unavailable")
	ErrNoDataFound       = errors.New("no products found in flyer")
	ErrUnsupportedSource = errors.New("unsupported flyer source kind")
)

// ScrapeError represents an error that occurred while scraping one store
type ScrapeError struct {
	Store     string
	Operation string
	Err       error
	Timestamp time.Time
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("[%s] %s: %v at %s",
		e.Store, e.Operation, e.Err, e.Timestamp.Format(time.RFC3339))
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

func NewScrapeError(store, operation string, err error) *ScrapeError {
	return &ScrapeError{
		Store:     store,
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry executes fn with exponential backoff. Errors that IsRetryableError
// rejects stop the loop immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if logger != nil {
			logger.Warn("scrape attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.MaxAttempts),
				slog.String("error", err.Error()),
			)
		}

		if !IsRetryableError(err) {
			return fmt.Errorf("attempt %d failed permanently: %w", attempt, err)
		}

		if attempt < cfg.MaxAttempts {
			waitTime := delay
			if quarter := int64(delay / 4); quarter > 0 {
				waitTime += time.Duration(rand.Int63n(quarter))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}

			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

// IsRetryableError reports whether another attempt could succeed. Parse
// failures and empty flyers would give the same result again; unknown
// (transport) errors are retried.
func IsRetryableError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrParsingFailed), errors.Is(err, ErrNoDataFound), errors.Is(err, ErrUnsupportedSource):
		return false
	default:
		return true
	}
}
