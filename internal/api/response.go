package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"SignalFusion/internal/engine"
	"SignalFusion/internal/model"
	"SignalFusion/internal/scheduler"
)

// APIResponse is the envelope for every JSON reply.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// DataResponse writes data with the given status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes a 200 reply.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes a 400 reply.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// ErrorResponse maps domain errors onto HTTP statuses.
func ErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownSymbol):
		return DataResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrDataUnavailable):
		return DataResponse(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, scheduler.ErrRunInProgress):
		return DataResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return DataResponse(c, http.StatusGatewayTimeout, "upstream timed out")
	default:
		return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
	}
}
