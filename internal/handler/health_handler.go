package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/config"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

const (
	dependencyUp       = "up"
	dependencyDown     = "down"
	dependencyDisabled = "disabled"
)

// HealthDependencies lists the backends checked by the health endpoint. Nil
// redis or NATS clients are reported as disabled.
type HealthDependencies struct {
	DB    *gorm.DB
	Redis *redis.Client
	NATS  *nats.Conn
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthCheck reports reachability of the database, summary cache and event
// bus. The service is unhealthy only when the database is down; cache and
// events failing leave it degraded.
func HealthCheck(cfg config.Config, deps HealthDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(withRequestContext(c), 2*time.Second)
		defer cancel()

		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Dependencies: map[string]string{
				"database": checkDatabase(ctx, deps.DB),
				"redis":    checkRedis(ctx, deps.Redis),
				"nats":     checkNATS(deps.NATS),
			},
		}

		switch {
		case payload.Dependencies["database"] == dependencyDown:
			payload.Status = "unavailable"
			return utils.SendErrorWithData(c, fiber.StatusServiceUnavailable, "database unreachable", payload)
		case payload.Dependencies["redis"] == dependencyDown, payload.Dependencies["nats"] == dependencyDown:
			payload.Status = "degraded"
			return utils.SendSuccess(c, "service degraded", payload)
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

func checkDatabase(ctx context.Context, db *gorm.DB) string {
	if db == nil {
		return dependencyDisabled
	}
	sqlDB, err := db.DB()
	if err != nil {
		return dependencyDown
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyDown
	}
	return dependencyUp
}

func checkRedis(ctx context.Context, client *redis.Client) string {
	if client == nil {
		return dependencyDisabled
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return dependencyDown
	}
	return dependencyUp
}

func checkNATS(conn *nats.Conn) string {
	if conn == nil {
		return dependencyDisabled
	}
	if !conn.IsConnected() {
		return dependencyDown
	}
	return dependencyUp
}
