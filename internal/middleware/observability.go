package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/observability"
)

// slowRequest marks requests worth a second look in the logs; the latency
// histogram carries the full distribution.
const slowRequest = 500 * time.Millisecond

// Observability records HTTP metrics and one structured log line per API
// request. Health checks are logged at debug level only.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), "/api/") {
			return err
		}

		elapsed := time.Since(start)
		route := routeTemplate(c)
		method := c.Method()
		status := responseStatus(c, err)
		code := strconv.Itoa(status)

		observability.HTTPRequests().WithLabelValues(method, route, code).Inc()
		observability.HTTPLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.HTTPErrors().WithLabelValues(method, route, code).Inc()
		}

		event := requestEvent(logger, status, route)
		event = event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Bool("slow", elapsed > slowRequest)
		if id := principalID(c); id > 0 {
			event = event.Uint("user_id", id)
		}
		if role, ok := c.Locals("user_role").(string); ok && role != "" {
			event = event.Str("role", role)
		}
		if err != nil {
			event = event.Err(err)
		}
		event.Msg("request completed")

		return err
	}
}

func requestEvent(logger zerolog.Logger, status int, route string) *zerolog.Event {
	switch {
	case status >= fiber.StatusInternalServerError:
		return logger.Error()
	case status >= fiber.StatusBadRequest:
		return logger.Warn()
	case strings.HasSuffix(route, "/health"):
		return logger.Debug()
	default:
		return logger.Info()
	}
}

// responseStatus reports the status the client will see. Errors returned up
// the chain are rendered by the app's error handler after this middleware
// runs, so the response code is not yet set for them.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
		return route.Path
	}
	return c.Path()
}
