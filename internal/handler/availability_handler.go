package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"bookingcore/internal/errors"
	"bookingcore/internal/model"
	"bookingcore/internal/service"
)

// maxAvailabilityWindow bounds a single calendar query.
const maxAvailabilityWindow = 366 * 24 * time.Hour

// AvailabilityHandler serves property calendars.
type AvailabilityHandler struct {
	availabilityService service.AvailabilityService
	errs                *ErrorWriter
}

// NewAvailabilityHandler creates a new availability handler.
func NewAvailabilityHandler(availabilityService service.AvailabilityService, errs *ErrorWriter) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService, errs: errs}
}

// GetAvailability godoc
// @Summary Blocked dates of a property
// @Description Dates are half-open: a range ending on a date leaves that date free for check-in.
// @Tags properties
// @Produce json
// @Param id path int true "Property ID"
// @Param start query string false "First date (YYYY-MM-DD), defaults to today"
// @Param end query string false "Date after the last one (YYYY-MM-DD), defaults to start + 90 days"
// @Success 200 {object} service.Availability
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /properties/{id}/availability [get]
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return badRequest("invalid property id")
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if s := c.QueryParam("start"); s != "" {
		if start, err = time.Parse(model.DateLayout, s); err != nil {
			return h.errs.Write(c, errors.NewValidationError("start", "must be YYYY-MM-DD"))
		}
	}
	end := start.AddDate(0, 0, 90)
	if s := c.QueryParam("end"); s != "" {
		if end, err = time.Parse(model.DateLayout, s); err != nil {
			return h.errs.Write(c, errors.NewValidationError("end", "must be YYYY-MM-DD"))
		}
	}
	if end.Sub(start) > maxAvailabilityWindow {
		return h.errs.Write(c, errors.NewValidationError("end", "window must not exceed one year"))
	}

	availability, err := h.availabilityService.GetAvailability(c.Request().Context(), uint(id), start, end)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(http.StatusOK, availability)
}
