package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation is returned when a request fails business validation.
	ErrValidation = errors.New("validation failed")
	// ErrDateConflict is returned when the requested dates overlap an existing reservation.
	ErrDateConflict = errors.New("selected dates are not available")
	// ErrPropertyNotFound is returned when a property is not found.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrBookingNotFound is returned when a booking is not found.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrGatewayConfiguration is returned when gateway credentials are missing.
	ErrGatewayConfiguration = errors.New("payment gateway is not configured")
	// ErrGatewayTimeout is returned when the gateway does not answer in time.
	ErrGatewayTimeout = errors.New("payment gateway timed out")
	// ErrCallbackIntegrity is returned when a callback checksum does not verify.
	ErrCallbackIntegrity = errors.New("callback checksum verification failed")
	// ErrCallbackMalformed is returned when a callback is missing or has unparseable fields.
	ErrCallbackMalformed = errors.New("malformed callback")
	// ErrInvalidTransition is returned when an operator action does not apply to the booking state.
	ErrInvalidTransition = errors.New("invalid booking state transition")
	// ErrNotAvailable is returned for features disabled in the current environment.
	ErrNotAvailable = errors.New("not available")
)

// ValidationError carries a user-facing reason for ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a new validation error.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// GatewayInitiationError is returned when the gateway rejects a payment request.
// Message and Code come from the gateway response.
type GatewayInitiationError struct {
	Message    string
	Code       string
	HTTPStatus int
}

func (e *GatewayInitiationError) Error() string {
	return fmt.Sprintf("payment initiation failed: %s (%s)", e.Message, e.Code)
}

// CallbackError wraps ErrCallbackIntegrity or ErrCallbackMalformed with the reason.
type CallbackError struct {
	Kind   error
	Reason string
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap exposes the kind for errors.Is.
func (e *CallbackError) Unwrap() error {
	return e.Kind
}

// Malformed builds a CallbackError for a malformed callback.
func Malformed(format string, args ...interface{}) error {
	return &CallbackError{Kind: ErrCallbackMalformed, Reason: fmt.Sprintf(format, args...)}
}

// Integrity builds a CallbackError for a checksum failure.
func Integrity(reason string) error {
	return &CallbackError{Kind: ErrCallbackIntegrity, Reason: reason}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Detail     string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Detail: e.Detail,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Unknown errors become a generic 500; pass debug to expose their text in Detail.
func MapErrorToHTTP(err error, debug bool) *HTTPError {
	var validationErr *ValidationError
	var initErr *GatewayInitiationError

	switch {
	case errors.As(err, &validationErr):
		return NewHTTPError(http.StatusUnprocessableEntity, validationErr.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusUnprocessableEntity, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrDateConflict):
		return NewHTTPError(http.StatusUnprocessableEntity, ErrDateConflict.Error(), "DATE_CONFLICT")
	case errors.Is(err, ErrPropertyNotFound):
		return NewHTTPError(http.StatusNotFound, ErrPropertyNotFound.Error(), "PROPERTY_NOT_FOUND")
	case errors.Is(err, ErrBookingNotFound):
		return NewHTTPError(http.StatusNotFound, ErrBookingNotFound.Error(), "BOOKING_NOT_FOUND")
	case errors.As(err, &initErr):
		httpErr := NewHTTPError(http.StatusUnprocessableEntity, initErr.Message, "GATEWAY_INITIATION_FAILED")
		httpErr.Detail = initErr.Code
		return httpErr
	case errors.Is(err, ErrGatewayConfiguration):
		return NewHTTPError(http.StatusInternalServerError, "payment service unavailable", "GATEWAY_CONFIGURATION_ERROR")
	case errors.Is(err, ErrGatewayTimeout):
		return NewHTTPError(http.StatusServiceUnavailable, "payment gateway did not respond, please retry", "GATEWAY_TIMEOUT")
	case errors.Is(err, ErrCallbackIntegrity):
		return NewHTTPError(http.StatusForbidden, "forbidden", "CALLBACK_INTEGRITY_ERROR")
	case errors.Is(err, ErrCallbackMalformed):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "CALLBACK_MALFORMED")
	case errors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusConflict, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, ErrNotAvailable):
		return NewHTTPError(http.StatusNotFound, "not found", "NOT_FOUND")
	default:
		httpErr := NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
		if debug && err != nil {
			httpErr.Detail = err.Error()
		}
		return httpErr
	}
}
