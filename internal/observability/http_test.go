package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesGradingCollectors(t *testing.T) {
	Submissions().WithLabelValues("accepted").Inc()
	GradedAnswers().WithLabelValues("essay", "ungraded", "auto").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())
	// A second registration must reuse the collectors already registered.
	app.Get("/metrics-again", MetricsHandler())

	for _, path := range []string{"/metrics", "/metrics-again"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `assessment_submissions_total{outcome="accepted"}`)
		require.Contains(t, string(body), `assessment_graded_answers_total{question_type="essay",source="auto",verdict="ungraded"}`)
	}
}
