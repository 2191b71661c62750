package providers

import (
	"github.com/samber/do/v2"

	"github.com/tagshelf/tagshelf/internal/config"
	"github.com/tagshelf/tagshelf/internal/logger"
	"github.com/tagshelf/tagshelf/internal/ratelimit"
)

// RateLimiterHandle wraps the keyed rate limiter with shutdown capability.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-client limiter for mutating requests.
// Its idle-entry sweeper runs until shutdown.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	log.Info("Rate limiter started", "rps", cfg.RateLimit.RPS, "burst", cfg.RateLimit.Burst)

	return &RateLimiterHandle{KeyedRateLimiter: limiter}, nil
}
