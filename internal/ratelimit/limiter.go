// Package ratelimit paces ShotGrid API calls from this client.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pipelinekit/sgdesk/internal/logging"
)

// slowWait is the wait after which a rate-limited call is logged.
const slowWait = 2 * time.Second

// RateLimiter is a token bucket shared by every request of one client.
type RateLimiter struct {
	limiter *rate.Limiter

	logger       *logging.Logger
	warnMu       sync.Mutex
	lastWarnTime time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with bursts up to burst.
// The bucket starts full.
func NewRateLimiter(rps float64, burst int, logger *logging.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()

	err := rl.limiter.Wait(ctx)

	if waited := time.Since(start); err == nil && waited > slowWait {
		rl.warnMu.Lock()
		// Only warn every 10 seconds to avoid spam
		if time.Since(rl.lastWarnTime) > 10*time.Second {
			rl.logger.Warn().Dur("waited", waited).Msg("Rate limited: waited for API capacity")
			rl.lastWarnTime = time.Now()
		}
		rl.warnMu.Unlock()
	}
	return err
}
