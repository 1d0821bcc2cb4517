package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/alcaldia-digital/reportes-api/internal/config"
)

// RateLimit returns a Redis-backed token-bucket middleware keyed by client
// IP and route. It is applied to the auth endpoints to slow down
// credential stuffing; when rate limiting is disabled or Redis is
// unavailable the middleware is a no-op and requests pass through.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	// The Lua script refills the bucket according to elapsed time and takes
	// one token atomically, so concurrent requests against the same key
	// cannot over-consume.
	limiter := redis.NewScript(`
		local key = KEYS[1]
		local now_ms = tonumber(ARGV[1])
		local capacity = tonumber(ARGV[2])
		local refill_tokens = tonumber(ARGV[3])
		local interval_ms = tonumber(ARGV[4])
		local ttl_seconds = tonumber(ARGV[5])

		local data = redis.call('HMGET', key, 'tokens', 'ts')
		local tokens = tonumber(data[1])
		local ts = tonumber(data[2])
		if tokens == nil then
			tokens = capacity
			ts = now_ms
		end

		local elapsed = now_ms - ts
		if elapsed > 0 then
			local refills = math.floor(elapsed / interval_ms)
			if refills > 0 then
				tokens = math.min(capacity, tokens + refills * refill_tokens)
				ts = ts + refills * interval_ms
			end
		end

		local allowed = 0
		if tokens > 0 then
			tokens = tokens - 1
			allowed = 1
		end

		redis.call('HMSET', key, 'tokens', tokens, 'ts', ts)
		redis.call('EXPIRE', key, ttl_seconds)
		return {allowed, tokens}
	`)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, c.RealIP(), c.Path())
			now := time.Now().UnixMilli()

			res, err := limiter.Run(c.Request().Context(), rdb, []string{key},
				now, cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), int(cfg.TTL.Seconds())).Slice()
			if err != nil {
				// Redis trouble must not take the auth endpoints down.
				return next(c)
			}

			allowed, _ := res[0].(int64)
			if allowed != 1 {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(cfg.RefillInterval.Seconds())))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "TooManyRequests", "message": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
