package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bookingcore/internal/auth"
	"bookingcore/internal/config"
	"bookingcore/internal/errors"
	"bookingcore/internal/handler"
	"bookingcore/internal/logging"
)

// maxBodySize bounds every request body.
const maxBodySize = "1M"

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Booking      *handler.BookingHandler
	Payment      *handler.PaymentHandler
	Availability *handler.AvailabilityHandler
	Vendor       *handler.VendorHandler
	Admin        *handler.AdminHandler
	Seed         *handler.SeedHandler
	Auth         *handler.AuthHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *logrus.Logger,
	jwtService *auth.JWTService,
	tokens auth.RevocationStore,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/bookings", h.Booking.CreateBooking)
	api.GET("/bookings/:reference", h.Booking.GetBooking)
	api.GET("/properties/:id/availability", h.Availability.GetAvailability)

	callbackLimiter := NewIPRateLimiter(cfg.CallbackRateLimit, cfg.CallbackRateBurst)
	api.POST("/payments/callback", h.Payment.Callback, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: callbackLimiter,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.WithField("source_ip", identifier).Warn("payment callback rate limited")
			return echo.NewHTTPError(http.StatusTooManyRequests, errors.ErrorResponse{
				Error: "too many requests",
				Code:  "RATE_LIMITED",
			})
		},
	}))

	// Secured routes (require operator JWT)
	requireToken := echojwt.WithConfig(echojwt.Config{
		ContextKey:  auth.ContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ParseToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "missing or invalid token",
				Code:  "UNAUTHORIZED",
			})
		},
	})
	operator := api.Group("", requireToken, rejectRevoked(tokens), requireRole(auth.RoleVendor, auth.RoleAdmin))

	operator.GET("/operator/me", h.Auth.Me)
	operator.POST("/operator/logout", h.Auth.Logout)

	operator.POST("/vendor/bookings/block", h.Vendor.BlockDates)
	operator.POST("/vendor/bookings/:id/cancel", h.Vendor.CancelBooking)

	admin := operator.Group("/admin", requireRole(auth.RoleAdmin))
	admin.POST("/payments/:merchantTransactionId/reconcile", h.Admin.Reconcile)
	admin.POST("/payments/simulate", h.Admin.Simulate)
	admin.GET("/bookings/:id/payment-events", h.Admin.PaymentEvents)
	admin.POST("/properties/seed", h.Seed.SeedProperties)
}

// requireRole rejects operators whose token carries none of roles.
func requireRole(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := auth.FromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{Error: "invalid token", Code: "UNAUTHORIZED"})
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{Error: "forbidden", Code: "FORBIDDEN"})
		}
	}
}

// rejectRevoked refuses tokens revoked through logout.
func rejectRevoked(tokens auth.RevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := auth.FromContext(c)
			if !ok {
				return next(c)
			}
			revoked, _ := tokens.IsRevoked(c.Request().Context(), claims.ID)
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{Error: "token revoked", Code: "UNAUTHORIZED"})
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
