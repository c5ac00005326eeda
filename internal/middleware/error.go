package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/services"
)

var codeStatus = map[string]int{
	services.CodeNoTable:              fiber.StatusNotFound,
	services.CodeColumnNotFound:       fiber.StatusNotFound,
	services.CodeSheetNotFound:        fiber.StatusNotFound,
	services.CodeNoData:               fiber.StatusNotFound,
	services.CodeInvalidSheet:         fiber.StatusBadRequest,
	services.CodeInvalidInput:         fiber.StatusBadRequest,
	services.CodeInvalidArgument:      fiber.StatusBadRequest,
	services.CodeInvalidFormat:        fiber.StatusBadRequest,
	services.CodeUnsupportedInterval:  fiber.StatusBadRequest,
	services.CodeNoColumns:            fiber.StatusBadRequest,
	services.CodeArithmeticDegenerate: fiber.StatusUnprocessableEntity,
	services.CodeUpstream:             fiber.StatusBadGateway,
}

// StatusFor returns the HTTP status for a service error code.
func StatusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders errors returned by handlers as ErrorResponse JSON.
// Fiber errors keep their status; everything else is classified through
// services.FromError.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			status int
			detail models.ErrorDetail
		)

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			detail = models.ErrorDetail{Code: "ERROR", Message: fiberErr.Message}
		} else {
			svcErr := services.FromError(err)
			status = StatusFor(svcErr.Code)
			detail = models.ErrorDetail{Code: svcErr.Code, Message: svcErr.Message, Details: svcErr.Details}
		}
		detail.Path = c.Path()

		log := logger.WithContext(c.UserContext())
		if status >= fiber.StatusInternalServerError {
			log.Error("Request error", "path", c.Path(), "method", c.Method(), "status", status, "error", err)
		} else {
			log.Debug("Request rejected", "path", c.Path(), "method", c.Method(), "status", status, "error", err)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}
