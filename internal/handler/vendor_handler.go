package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"bookingcore/internal/auth"
	"bookingcore/internal/model"
	"bookingcore/internal/service"
)

// VendorHandler handles operator booking actions.
type VendorHandler struct {
	bookingService service.BookingService
	errs           *ErrorWriter
}

// NewVendorHandler creates a new vendor handler.
func NewVendorHandler(bookingService service.BookingService, errs *ErrorWriter) *VendorHandler {
	return &VendorHandler{bookingService: bookingService, errs: errs}
}

// BlockDatesRequest represents a manual date block.
type BlockDatesRequest struct {
	PropertyID uint   `json:"property_id" validate:"required"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Note       string `json:"note" validate:"max=255"`
}

// BlockDates godoc
// @Summary Block dates of a property
// @Tags vendor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BlockDatesRequest true "Dates to block"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /vendor/bookings/block [post]
func (h *VendorHandler) BlockDates(c echo.Context) error {
	claims, ok := auth.FromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req BlockDatesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}
	checkIn, _ := time.Parse(model.DateLayout, req.CheckIn)
	checkOut, _ := time.Parse(model.DateLayout, req.CheckOut)

	source := model.BookingSourceVendorManual
	if claims.Role == auth.RoleAdmin {
		source = model.BookingSourceAdminManual
	}

	booking, err := h.bookingService.BlockDates(c.Request().Context(), service.BlockDatesInput{
		PropertyID: req.PropertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Note:       req.Note,
		Source:     source,
		VendorID:   claims.VendorScope(),
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(http.StatusCreated, BookingResponse{Booking: booking})
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Tags vendor
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /vendor/bookings/{id}/cancel [post]
func (h *VendorHandler) CancelBooking(c echo.Context) error {
	claims, ok := auth.FromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return badRequest("invalid booking id")
	}

	booking, err := h.bookingService.CancelBooking(c.Request().Context(), uint(id), claims.VendorScope())
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(http.StatusOK, BookingResponse{Booking: booking})
}
