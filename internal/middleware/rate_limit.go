package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// RateLimit throttles requests per authenticated principal, falling back to
// the client IP for anonymous callers. Route params listed in scope become
// part of the key, so limiting submit on "id" gives every (student,
// assessment) pair its own budget.
func RateLimit(identifier string, max int, window time.Duration, scope ...string) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return rateLimitKey(c, identifier, scope)
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds()+0.5)))
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many attempts, retry later")
		},
	})
}

func rateLimitKey(c *fiber.Ctx, identifier string, scope []string) string {
	parts := []string{identifier}
	if id := principalID(c); id != 0 {
		parts = append(parts, "user", strconv.FormatUint(uint64(id), 10))
	} else {
		parts = append(parts, "ip", c.IP())
	}
	for _, param := range scope {
		parts = append(parts, param, strings.TrimSpace(c.Params(param)))
	}
	return strings.Join(parts, ":")
}

func principalID(c *fiber.Ctx) uint {
	switch v := c.Locals("user_id").(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}
