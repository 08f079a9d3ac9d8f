package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestObservabilityLogsStatusOfReturnedErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	app := fiber.New()
	app.Use(Observability(logger))
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(42))
		c.Locals("user_role", "teacher")
		return c.Next()
	})
	app.Get("/api/v2/assessments/:id", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusConflict, "already submitted")
	})
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/assessments/9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	lines := decodeLogLines(t, &buf)
	require.Len(t, lines, 1, "health checks stay below info level")

	line := lines[0]
	require.Equal(t, "warn", line["level"])
	require.EqualValues(t, fiber.StatusConflict, line["status"])
	require.Equal(t, "/api/v2/assessments/:id", line["route"])
	require.EqualValues(t, 42, line["user_id"])
	require.Equal(t, "teacher", line["role"])
	require.Equal(t, "already submitted", line["error"])
}

func TestResponseStatusDefaultsToInternalError(t *testing.T) {
	app := fiber.New()
	var plain, typed, ok int
	app.Get("/", func(c *fiber.Ctx) error {
		plain = responseStatus(c, bytes.ErrTooLarge)
		typed = responseStatus(c, fiber.ErrNotFound)
		c.Status(fiber.StatusAccepted)
		ok = responseStatus(c, nil)
		return nil
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, plain)
	require.Equal(t, fiber.StatusNotFound, typed)
	require.Equal(t, fiber.StatusAccepted, ok)
}
