package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/services"
)

func errorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
	app.Get("/fail", func(c *fiber.Ctx) error { return err })
	return app
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"fiber error", fiber.ErrBadRequest, fiber.StatusBadRequest, "ERROR"},
		{"no table", services.ErrNoTable, fiber.StatusNotFound, services.CodeNoTable},
		{"wrapped invalid input", fmt.Errorf("extremes: %w", analytics.ErrInvalidInput), fiber.StatusBadRequest, services.CodeInvalidInput},
		{"degenerate", analytics.ErrArithmeticDegenerate, fiber.StatusUnprocessableEntity, services.CodeArithmeticDegenerate},
		{"service error", services.NewServiceError(services.CodeColumnNotFound, "column \"X\" not found"), fiber.StatusNotFound, services.CodeColumnNotFound},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError, services.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := errorApp(tt.err).Test(httptest.NewRequest("GET", "/fail", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var errResp models.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tt.code, errResp.Error.Code)
			assert.Equal(t, "/fail", errResp.Error.Path)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadGateway, StatusFor(services.CodeUpstream))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
}
