package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Exarkun1/pylab4/internal/models"
)

// Health reports that the API is up along with the state of the current
// table. An empty analyser is still healthy.
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	}
	if table, err := h.svc.Table(); err == nil {
		resp.Table = models.TableStatus{
			Loaded:  true,
			Source:  h.svc.Source(),
			Rows:    table.Len(),
			Columns: table.Columns(),
		}
	}
	return c.JSON(resp)
}

// NotFound answers unknown routes with the standard error envelope.
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("no route for %s %s", c.Method(), c.Path()),
			Path:    c.Path(),
		},
	})
}
