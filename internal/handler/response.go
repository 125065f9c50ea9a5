package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"bookingcore/internal/errors"
)

// ErrorWriter turns service errors into JSON error responses.
type ErrorWriter struct {
	Logger *logrus.Logger
	// Debug exposes the text of unexpected errors in the response detail.
	Debug bool
}

// Write maps err and returns it as an echo HTTP error. Server errors are logged.
func (w *ErrorWriter) Write(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err, w.Debug)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		w.Logger.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request().Method,
			"path":       c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).Error("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  "INVALID_REQUEST",
	})
}

func validationFailed(err error) error {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, errors.ErrorResponse{
		Error: err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}
