package database

import (
	"context"
	"time"
)

const (
	// DefaultMaxRetries is the retry budget of Authenticate after the first attempt.
	DefaultMaxRetries = 5

	backoffBase = time.Second
	backoffCap  = 10 * time.Second
)

// Backoff returns the delay before the retry-th retry (1-based):
// min(1s * 2^(retry-1), 10s), i.e. 1s, 2s, 4s, 8s, 10s, 10s, …
func Backoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	d := backoffBase
	for i := 1; i < retry; i++ {
		d *= 2
		if d >= backoffCap {
			return backoffCap
		}
	}
	return d
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
