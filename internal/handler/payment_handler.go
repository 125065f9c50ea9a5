package handler

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"bookingcore/internal/gateway"
	"bookingcore/internal/model"
	"bookingcore/internal/service"
)

// PaymentHandler handles gateway callbacks.
type PaymentHandler struct {
	paymentService service.PaymentService
	verifier       *gateway.Verifier
	errs           *ErrorWriter
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService, verifier *gateway.Verifier, errs *ErrorWriter) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, verifier: verifier, errs: errs}
}

// CallbackResponse is returned to server-to-server callbacks.
type CallbackResponse struct {
	Success       bool                `json:"success"`
	BookingID     uint                `json:"booking_id"`
	Status        model.BookingStatus `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Replayed      bool                `json:"replayed"`
}

// Callback godoc
// @Summary Payment gateway callback
// @Description Accepts a signed JSON envelope ({"response": base64} with X-VERIFY) or a browser form redirect.
// @Description Only signed envelopes change payment state. Browser posts are redirected to the booking result page.
// @Tags payments
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param X-VERIFY header string false "sha256hex###keyIndex over the response field"
// @Success 200 {object} CallbackResponse
// @Success 303
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /payments/callback [post]
func (h *PaymentHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	sourceIP := c.RealIP()

	cb, err := h.verifier.Verify(c.Request())
	if err != nil {
		h.paymentService.RecordRejection(ctx, err, sourceIP)
		return h.errs.Write(c, err)
	}

	result, err := h.paymentService.HandleCallback(ctx, cb, sourceIP)
	if err != nil {
		return h.errs.Write(c, err)
	}

	if cb.Trust() == gateway.TrustUnverified || isFormPost(c.Request()) {
		return c.Redirect(http.StatusSeeOther, result.RedirectURL)
	}

	return c.JSON(http.StatusOK, CallbackResponse{
		Success:       true,
		BookingID:     result.Booking.ID,
		Status:        result.Booking.Status,
		PaymentStatus: result.Booking.PaymentStatus,
		Replayed:      result.Replayed,
	})
}

func isFormPost(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(echo.HeaderContentType))
	return mediaType == echo.MIMEApplicationForm || mediaType == echo.MIMEMultipartForm
}
