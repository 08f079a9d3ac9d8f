package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-assessment-api/internal/config"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler *handler.AssessmentHandler
	AssignmentHandler *handler.AssignmentHandler
	GradingHandler    *handler.GradingHandler
	SubmissionHandler *handler.SubmissionHandler
	ActivityHandler   *handler.ActivityHandler
	Health            handler.HealthDependencies
	JWTMiddleware     fiber.Handler
	SubmitLimiter     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Health))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	instructors := middleware.RequireRole("admin", "teacher")

	// Student-facing routes are registered first so /api/v2/student is not
	// captured by the instructor groups below.
	if deps.SubmissionHandler != nil {
		student := app.Group("/api/v2/student/assessments", jwtMiddleware, middleware.RequireRole("student"))
		deps.SubmissionHandler.Register(student, deps.SubmitLimiter)
	}

	if deps.AssessmentHandler != nil {
		assessments := app.Group("/api/v2/assessments", jwtMiddleware, instructors)
		if deps.GradingHandler != nil {
			deps.GradingHandler.RegisterAssessments(assessments)
		}
		deps.AssessmentHandler.Register(assessments)
	}

	if deps.AssignmentHandler != nil {
		assignments := app.Group("/api/v2/assessment-assignments", jwtMiddleware, instructors)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.GradingHandler != nil {
		answers := app.Group("/api/v2/answers", jwtMiddleware, instructors)
		deps.GradingHandler.RegisterAnswers(answers)
	}

	if deps.ActivityHandler != nil {
		activities := app.Group("/api/admin/activities", jwtMiddleware, instructors)
		deps.ActivityHandler.Register(activities)
	}
}
