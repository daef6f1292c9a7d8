package wageadvance

import (
	"context"
	"time"
)

// RetryConfig bounds the finality poll that precedes a transfer.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  6,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// pollUntil calls fn until it reports done, returns an error, the attempts run out or ctx ends.
// It reports whether fn finished.
func pollUntil(ctx context.Context, cfg RetryConfig, fn func(attempt int) (bool, error)) (bool, error) {
	delay := cfg.InitialDelay
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		done, err := fn(attempt)
		if err != nil || done {
			return done, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}
	return false, nil
}
