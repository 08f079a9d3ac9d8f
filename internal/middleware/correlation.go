package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/gema-assessment-api/internal/correlation"
)

const correlationLocal = "correlation_id"

// CorrelationID accepts an upstream X-Correlation-ID (or X-Request-ID),
// generating one when absent, and echoes it on the response. The id is
// stored in Locals and on the user context so services and event payloads
// can pick it up.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := firstNonBlank(c.Get(correlation.Header), c.Get(fiber.HeaderXRequestID))
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set(correlation.Header, id)
		c.SetUserContext(correlation.WithID(c.UserContext(), id))

		return c.Next()
	}
}

// GetCorrelationID returns the id bound to the request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok {
		return id
	}
	return correlation.FromContext(c.UserContext())
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
