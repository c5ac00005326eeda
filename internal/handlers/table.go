package handlers

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/services"
)

// GetTable returns the whole current table.
// GET /v1/table
func (h *Handler) GetTable(c *fiber.Ctx) error {
	table, err := h.svc.Table()
	if err != nil {
		return err
	}
	return c.JSON(models.NewTableResponse(table))
}

// GetColumn returns the present cells of one column.
// GET /v1/table/columns/:column
func (h *Handler) GetColumn(c *fiber.Ctx) error {
	name := c.Params("column")

	series, err := h.svc.Column(name)
	if err != nil {
		return err
	}

	points := make([]models.PointView, 0, series.Len())
	for _, p := range series.Points() {
		points = append(points, models.PointView{
			Time:  p.Time.Format(time.RFC3339),
			Value: models.Float(p.Value),
		})
	}

	return c.JSON(models.ColumnResponse{
		Column: name,
		Points: points,
		Count:  len(points),
	})
}

// GetExtremes finds the extrema of a column.
// GET /v1/extremes?column=Open&global=true
func (h *Handler) GetExtremes(c *fiber.Ctx) error {
	column := c.Query("column")
	if column == "" {
		return services.NewServiceError(services.CodeInvalidArgument, "query parameter 'column' is required")
	}

	global := false
	if raw := c.Query("global"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return services.NewServiceErrorWithDetails(services.CodeInvalidArgument,
				"query parameter 'global' must be a boolean",
				map[string]interface{}{"global": raw})
		}
		global = v
	}

	extremes, err := h.svc.Extremes(column, global)
	if err != nil {
		return err
	}

	views := make([]models.ExtremumView, len(extremes))
	for i, e := range extremes {
		views[i] = models.ExtremumView{
			Index: e.Index,
			Time:  e.Time.Format(time.RFC3339),
			Value: models.Float(e.Value),
			Type:  string(e.Kind),
		}
	}

	return c.JSON(models.ExtremesResponse{
		Column:   column,
		Global:   global,
		Extremes: views,
	})
}

// GetChart renders columns of the current table as SVG.
// GET /v1/chart?columns=Open,Movavg
func (h *Handler) GetChart(c *fiber.Ctx) error {
	var columns []string
	for _, col := range strings.Split(c.Query("columns"), ",") {
		if col = strings.TrimSpace(col); col != "" {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return services.NewServiceError(services.CodeNoColumns, "query parameter 'columns' is required")
	}

	var buf bytes.Buffer
	if err := h.svc.DrawTo(c.UserContext(), &buf, columns); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(buf.Bytes())
}
