package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"bookingcore/internal/gateway"
	"bookingcore/internal/model"
	"bookingcore/internal/service"
)

// EventLister reads the payment audit trail.
type EventLister interface {
	List(ctx context.Context, bookingID uint) ([]model.PaymentEvent, error)
}

// AdminHandler handles payment operations for administrators.
type AdminHandler struct {
	paymentService service.PaymentService
	events         EventLister
	errs           *ErrorWriter
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(paymentService service.PaymentService, events EventLister, errs *ErrorWriter) *AdminHandler {
	return &AdminHandler{paymentService: paymentService, events: events, errs: errs}
}

// SimulateRequest asks for a simulated gateway callback.
type SimulateRequest struct {
	BookingID uint   `json:"booking_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=success failed pending"`
}

// PaymentResultResponse describes the booking after a payment result was applied.
type PaymentResultResponse struct {
	Booking     *model.Booking `json:"booking"`
	Replayed    bool           `json:"replayed"`
	RedirectURL string         `json:"redirect_url"`
}

var simulatedStatus = map[string]gateway.Status{
	"success": gateway.StatusSuccess,
	"pending": gateway.StatusPending,
	"failed":  gateway.StatusError,
}

func toPaymentResult(res *service.CallbackResult) PaymentResultResponse {
	return PaymentResultResponse{Booking: res.Booking, Replayed: res.Replayed, RedirectURL: res.RedirectURL}
}

// Reconcile godoc
// @Summary Poll the gateway and apply the transaction status
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param merchantTransactionId path string true "Merchant transaction id (TXN_{bookingId}_{nonce})"
// @Success 200 {object} PaymentResultResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /admin/payments/{merchantTransactionId}/reconcile [post]
func (h *AdminHandler) Reconcile(c echo.Context) error {
	res, err := h.paymentService.Reconcile(c.Request().Context(), c.Param("merchantTransactionId"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResult(res))
}

// Simulate godoc
// @Summary Simulate a signed gateway callback
// @Description Not available in production.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SimulateRequest true "Booking and outcome"
// @Success 200 {object} PaymentResultResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/payments/simulate [post]
func (h *AdminHandler) Simulate(c echo.Context) error {
	var req SimulateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	res, err := h.paymentService.Simulate(c.Request().Context(), req.BookingID, simulatedStatus[req.Status])
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResult(res))
}

// PaymentEvents godoc
// @Summary Payment audit trail of a booking
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {array} model.PaymentEvent
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/bookings/{id}/payment-events [get]
func (h *AdminHandler) PaymentEvents(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return badRequest("invalid booking id")
	}
	events, err := h.events.List(c.Request().Context(), uint(id))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(http.StatusOK, events)
}
