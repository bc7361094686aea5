package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/networkhq/network-intake/internal/api/dto"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        map[string]Pinger
	now         func() time.Time
}

// NewHealthHandler returns a new handler instance. deps are checked by Ready.
func NewHealthHandler(serviceName, version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, deps: deps, now: time.Now}
}

// Live handles GET /api/health.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Service:   h.serviceName,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = "unavailable"
			ready = false
		} else {
			depStatus[name] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"version":      h.version,
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"success":      false,
		"error":        "one or more dependencies unavailable",
		"dependencies": depStatus,
	})
}
