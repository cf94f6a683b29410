package payments

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// CheckStatusWithRetry polls the provider until it answers definitively.
// An error from CheckStatus means ambiguity (network failure, malformed
// response) and is retried with exponential backoff up to maxAttempts;
// it never gets interpreted as success.
func CheckStatusWithRetry(ctx context.Context, p Provider, orderID string, maxAttempts int, baseDelay time.Duration) (Status, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return StatusPending, ctx.Err()
		default:
		}

		status, err := p.CheckStatus(ctx, orderID)
		if err == nil {
			return status, nil
		}
		lastErr = err

		if attempt < maxAttempts-1 {
			time.Sleep(backoff(baseDelay, attempt))
		}
	}

	return StatusPending, fmt.Errorf("maximum status checks exceeded: %w", lastErr)
}

func backoff(base time.Duration, attempt int) time.Duration {
	delay := base * time.Duration(1<<attempt)
	jitter := time.Duration(rand.Intn(250)) * time.Millisecond
	return delay + jitter
}
