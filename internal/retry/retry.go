// Package retry holds the bounded startup retry policy used while waiting
// for collaborators such as the database to come up.
package retry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	goretry "github.com/sethvargo/go-retry"
)

// Linear calls fn until it succeeds or attempts are exhausted. The delay
// before the n-th retry is n*step, so with a one second step the waits are
// 1s, 2s, 3s, ... The last error is returned when every attempt failed.
func Linear(ctx context.Context, name string, attempts int, step time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var n atomic.Int64
	var backoff goretry.Backoff = goretry.BackoffFunc(func() (time.Duration, bool) {
		return time.Duration(n.Add(1)) * step, false
	})
	backoff = goretry.WithMaxRetries(uint64(attempts-1), backoff)

	attempt := 0
	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("step", name).Int("attempt", attempt).Int("of", attempts).Msg("startup step failed, retrying")
			return goretry.RetryableError(err)
		}
		return nil
	})
}
