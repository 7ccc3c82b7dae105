package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

const (
	limiterMax    = 60
	limiterWindow = 30 * time.Second
)

// NewLimiter applies a per-client sliding window. Counters live in redis
// when rdb is set so every instance shares them, and in process memory
// otherwise. Event streams are long-lived and not counted.
func NewLimiter(rdb *redis.Client) fiber.Handler {
	cfg := limiter.Config{
		Max:               limiterMax,
		Expiration:        limiterWindow,
		LimiterMiddleware: limiter.SlidingWindow{},
		Next: func(c fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/notifications/stream")
		},
		KeyGenerator: func(c fiber.Ctx) string {
			return "medstage:limiter:" + c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	}
	if rdb != nil {
		cfg.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(cfg)
}
