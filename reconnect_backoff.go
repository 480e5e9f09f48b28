package stomp

import (
	"context"
	"time"
)

// ReconnectWithBackoff retries Reconnect up to maxAttempts times with
// exponential backoff, stopping early on success or when ctx is cancelled.
// This supplements, but does not replace, the single-shot Reconnect
// spec.md §4.4 mandates. Backoff shape (baseDelay * 2^attempt) is grounded
// on BX-D-mini-RPC/middleware/retry_middleware.go's RetryMiddleware.
func (s *Session) ReconnectWithBackoff(ctx context.Context, maxAttempts int, baseDelay time.Duration) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(uint(1)<<uint(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err = s.Reconnect()
		if err == nil {
			return nil
		}
		s.logger.Printf("session %s: reconnect attempt %d failed: %v", s.id, attempt+1, err)
	}
	return err
}
