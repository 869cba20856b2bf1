package middleware

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"capmatch/internal/models"
	"capmatch/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines the window for one guarded resource.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimitResult is the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

var rlLogger = observability.Component("ratelimit")

// CheckRateLimit applies a fixed-window counter keyed by resource and caller
// id. The first request in a window creates the counter with an expiry;
// subsequent requests increment it until the limit is hit. Window reset is
// lazy via the key TTL. Any store error fails open: availability of the
// protected action takes priority over strict limiting.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit RateLimitConfig) RateLimitResult {
	failOpen := RateLimitResult{Allowed: true, Limit: limit.MaxRequests, Remaining: limit.MaxRequests}

	if rdb == nil {
		return failOpen
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// INCR and set EXPIRE if new
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		rlLogger.WarnContext(ctx, "rate limit store error, failing open",
			"resource", resource, "error", err)
		return failOpen
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, limit.Window).Err(); err != nil {
			rlLogger.WarnContext(ctx, "rate limit expire failed, failing open",
				"resource", resource, "error", err)
			return failOpen
		}
	}

	remaining := limit.MaxRequests - int(cnt)
	if remaining < 0 {
		remaining = 0
	}

	if cnt > int64(limit.MaxRequests) {
		ttl, err := rdb.TTL(ctx, key).Result()
		if err != nil {
			rlLogger.WarnContext(ctx, "rate limit store error, failing open",
				"resource", resource, "error", err)
			return failOpen
		}
		if ttl < 0 {
			// The expiry was lost (e.g. the initial EXPIRE failed). Restart
			// the window rather than throttling the caller forever.
			if err := rdb.Set(ctx, key, 1, limit.Window).Err(); err != nil {
				rlLogger.WarnContext(ctx, "rate limit window reset failed, failing open",
					"resource", resource, "error", err)
				return failOpen
			}
			return RateLimitResult{Allowed: true, Limit: limit.MaxRequests, Remaining: limit.MaxRequests - 1}
		}
		return RateLimitResult{Limit: limit.MaxRequests, Remaining: 0, RetryAfter: ttl}
	}

	return RateLimitResult{Allowed: true, Limit: limit.MaxRequests, Remaining: remaining}
}

// RateLimit returns a Fiber middleware enforcing the given window for the
// named resource. It keys by authenticated userID (if set in
// c.Locals("userID")) otherwise by remote IP. Rate limiting is disabled when
// APP_ENV is "test" or "development" so dev workflows are not throttled.
func RateLimit(rdb *redis.Client, resource string, limit RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch os.Getenv("APP_ENV") {
		case "test", "development":
			return c.Next()
		}

		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		result := CheckRateLimit(c.UserContext(), rdb, resource, id, limit)

		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			observability.RateLimitedRequests.WithLabelValues(resource).Inc()
			c.Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewValidationError("Rate limit exceeded, try again later"))
		}
		return c.Next()
	}
}
