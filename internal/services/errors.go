// Package services holds the application state shared by the command loop
// and the HTTP API, and orchestrates storage, download, analysis, rendering
// and publishing around it.
package services

import (
	"errors"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/downloader"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/render"
	"github.com/Exarkun1/pylab4/internal/storage"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// ErrNoTable is returned when an operation needs a current table and none
// has been loaded or downloaded yet.
var ErrNoTable = errors.New("no table loaded")

// Service error codes
const (
	CodeNoTable              = "NO_TABLE"
	CodeColumnNotFound       = "COLUMN_NOT_FOUND"
	CodeSheetNotFound        = "SHEET_NOT_FOUND"
	CodeInvalidSheet         = "INVALID_SHEET"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeInvalidFormat        = "INVALID_FORMAT"
	CodeArithmeticDegenerate = "ARITHMETIC_DEGENERATE"
	CodeNoData               = "NO_DATA"
	CodeUnsupportedInterval  = "UNSUPPORTED_INTERVAL"
	CodeUpstream             = "UPSTREAM_ERROR"
	CodeNoColumns            = "NO_COLUMNS"
	CodeInternal             = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`

	err error
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap exposes the originating error, if any.
func (e *ServiceError) Unwrap() error {
	return e.err
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

var sentinelCodes = []struct {
	target error
	code   string
}{
	{ErrNoTable, CodeNoTable},
	{models.ErrColumnNotFound, CodeColumnNotFound},
	{storage.ErrSheetNotFound, CodeSheetNotFound},
	{storage.ErrInvalidSheetName, CodeInvalidSheet},
	{storage.ErrMalformedSheet, CodeInvalidSheet},
	{utils.ErrInvalidFormat, CodeInvalidFormat},
	{analytics.ErrArithmeticDegenerate, CodeArithmeticDegenerate},
	{analytics.ErrInvalidArgument, CodeInvalidArgument},
	{analytics.ErrInvalidInput, CodeInvalidInput},
	{downloader.ErrNoData, CodeNoData},
	{downloader.ErrUnsupportedInterval, CodeUnsupportedInterval},
	{render.ErrNoColumns, CodeNoColumns},
}

// FromError classifies err into a ServiceError. Known sentinels get their
// own code; anything else is CodeInternal, or CodeUpstream for a
// downloader API failure. A nil error yields nil.
func FromError(err error) *ServiceError {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.target) {
			return &ServiceError{Code: sc.code, Message: err.Error(), err: err}
		}
	}

	var apiErr *downloader.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{
			Code:    CodeUpstream,
			Message: err.Error(),
			Details: map[string]interface{}{"status": apiErr.StatusCode},
			err:     err,
		}
	}

	return &ServiceError{Code: CodeInternal, Message: err.Error(), err: err}
}
