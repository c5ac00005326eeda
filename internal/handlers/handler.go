package handlers

import (
	"context"
	"io"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
)

// TableService is the read side of the analysis service the API exposes.
type TableService interface {
	Table() (*models.Table, error)
	Source() string
	Column(name string) (*analytics.Series, error)
	Extremes(column string, global bool) ([]analytics.Extremum, error)
	DrawTo(ctx context.Context, w io.Writer, columns []string) error
}

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	svc     TableService
	version string
}

// New creates a new handler instance
func New(logger *logging.Logger, svc TableService, version string) *Handler {
	return &Handler{
		logger:  logger,
		svc:     svc,
		version: version,
	}
}
