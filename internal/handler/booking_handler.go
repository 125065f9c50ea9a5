package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"bookingcore/internal/model"
	"bookingcore/internal/service"
)

// BookingHandler handles public booking endpoints.
type BookingHandler struct {
	bookingService service.BookingService
	errs           *ErrorWriter
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookingService service.BookingService, errs *ErrorWriter) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, errs: errs}
}

// CreateBookingRequest represents a booking request.
type CreateBookingRequest struct {
	PropertyID     uint            `json:"property_id" validate:"required"`
	CheckIn        string          `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut       string          `json:"check_out" validate:"required,datetime=2006-01-02"`
	GuestCount     int             `json:"guest_count" validate:"required,min=1,max=100"`
	CustomerName   string          `json:"customer_name" validate:"required,max=255"`
	Mobile         string          `json:"mobile" validate:"required,max=20"`
	Email          *string         `json:"email" validate:"omitempty,email,max=255"`
	BaseAmount     decimal.Decimal `json:"base_amount" swaggertype:"string"`
	DiscountAmount decimal.Decimal `json:"discount_amount" swaggertype:"string"`
	TaxAmount      decimal.Decimal `json:"tax_amount" swaggertype:"string"`
	TotalAmount    decimal.Decimal `json:"total_amount" swaggertype:"string"`
	CouponCode     *string         `json:"coupon_code" validate:"omitempty,max=64"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=hotel card upi pay_at_property cash"`
	BookingSource  string          `json:"booking_source" validate:"omitempty"`
}

// BookingResponse wraps a booking and, for online payment, the gateway redirect.
type BookingResponse struct {
	Booking     *model.Booking `json:"booking"`
	RedirectURL string         `json:"redirect_url,omitempty"`
}

func (r *CreateBookingRequest) toInput() (service.CreateBookingInput, error) {
	checkIn, err := time.Parse(model.DateLayout, r.CheckIn)
	if err != nil {
		return service.CreateBookingInput{}, err
	}
	checkOut, err := time.Parse(model.DateLayout, r.CheckOut)
	if err != nil {
		return service.CreateBookingInput{}, err
	}
	method, err := model.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return service.CreateBookingInput{}, err
	}
	source, err := model.ParseBookingSource(r.BookingSource)
	if err != nil {
		return service.CreateBookingInput{}, err
	}
	if source.Manual() {
		source = model.BookingSourceCustomerApp
	}

	return service.CreateBookingInput{
		PropertyID:     r.PropertyID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		GuestCount:     r.GuestCount,
		CustomerName:   r.CustomerName,
		Mobile:         r.Mobile,
		Email:          r.Email,
		BaseAmount:     r.BaseAmount,
		DiscountAmount: r.DiscountAmount,
		TaxAmount:      r.TaxAmount,
		TotalAmount:    r.TotalAmount,
		CouponCode:     r.CouponCode,
		PaymentMethod:  method,
		BookingSource:  source,
	}, nil
}

// CreateBooking godoc
// @Summary Create a booking
// @Description Reserves the dates and, for card or UPI payment, initiates the payment. No booking is kept if initiation fails.
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "Booking data"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	in, err := req.toInput()
	if err != nil {
		return validationFailed(err)
	}

	result, err := h.bookingService.CreateBooking(c.Request().Context(), in)
	if err != nil {
		return h.errs.Write(c, err)
	}

	return c.JSON(http.StatusCreated, BookingResponse{
		Booking:     result.Booking,
		RedirectURL: result.RedirectURL,
	})
}

// GetBooking godoc
// @Summary Look up a booking by reference
// @Tags bookings
// @Produce json
// @Param reference path string true "Booking reference, e.g. RES-AB12CD34"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{reference} [get]
func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, err := h.bookingService.GetByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(http.StatusOK, BookingResponse{Booking: booking})
}
