// Package retry provides backoff strategies and a context-aware retry loop
// used by the trend fetcher and the pacing delays of the discovery loop.
//
// Basic usage:
//
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     retry.Doubling(10*time.Second, 2),
//		RetryIf:     retry.RetryAll,
//		Logger:      logger.GetLogger(),
//	}
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return fetch(ctx, term)
//	}, cfg)
//
// Attempts are counted including the first one. A failed final attempt
// returns immediately; there is no trailing sleep.
package retry
