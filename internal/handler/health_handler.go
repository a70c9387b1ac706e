package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/polarais/haru-sub000/pkg/database"
)

// HealthHandler reports liveness for the journal API: the process itself and
// the diary database behind it. Load balancers poll this endpoint, so it
// stays outside the bearer-token group.
type HealthHandler struct {
	DB *gorm.DB
}

// NewHealthHandler creates a HealthHandler over the given database handle.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{DB: db}
}

// HealthStatus is the health check payload.
type HealthStatus struct {
	Server    string `json:"server"`
	Database  string `json:"database"`
	CheckedAt string `json:"checked_at"`
}

// @Summary API Health Check
// @Description Reports whether the API and its database are reachable.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus "Database unreachable"
// @Router /health [get]
// CheckHealthFiber is the health check endpoint handler for Fiber.
func (h *HealthHandler) CheckHealthFiber(c *fiber.Ctx) error {
	status := HealthStatus{
		Server:    "up",
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := database.PingDB(h.DB); err != nil {
		status.Database = "unreachable: " + err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	status.Database = "up"
	return c.Status(fiber.StatusOK).JSON(status)
}

// CheckHealthGin is the health check endpoint handler for Gin.
func (h *HealthHandler) CheckHealthGin(c *gin.Context) {
	status := HealthStatus{
		Server:    "up",
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := database.PingDB(h.DB); err != nil {
		status.Database = "unreachable: " + err.Error()
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status.Database = "up"
	c.JSON(http.StatusOK, status)
}
