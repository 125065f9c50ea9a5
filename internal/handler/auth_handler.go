package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookingcore/internal/auth"
)

// AuthHandler handles operator session endpoints.
type AuthHandler struct {
	tokens auth.RevocationStore
	errs   *ErrorWriter
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokens auth.RevocationStore, errs *ErrorWriter) *AuthHandler {
	return &AuthHandler{tokens: tokens, errs: errs}
}

// OperatorResponse describes the caller's token.
type OperatorResponse struct {
	OperatorID uint      `json:"operator_id"`
	Role       auth.Role `json:"role"`
	ExpiresAt  string    `json:"expires_at,omitempty"`
}

// Me godoc
// @Summary Describe the current operator token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} OperatorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /operator/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := auth.FromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	resp := OperatorResponse{OperatorID: claims.OperatorID, Role: claims.Role}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time.UTC().Format("2006-01-02T15:04:05Z")
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Revoke the current operator token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Router /operator/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := auth.FromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	if err := auth.RevokeClaims(c.Request().Context(), h.tokens, claims); err != nil {
		return h.errs.Write(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
