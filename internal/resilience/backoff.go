package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff returns the sleep before retry number attempt (0-based):
// 2^attempt seconds plus up to one second of jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	jitter := time.Duration(rand.Int64N(int64(time.Second)))
	return base + jitter
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
