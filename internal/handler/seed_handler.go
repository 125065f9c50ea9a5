package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookingcore/internal/service"
)

// maxSeedEntries caps one seed request.
const maxSeedEntries = 5000

// SeedHandler handles seed data endpoints.
type SeedHandler struct {
	seeder *service.PropertySeeder
	errs   *ErrorWriter
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(seeder *service.PropertySeeder, errs *ErrorWriter) *SeedHandler {
	return &SeedHandler{seeder: seeder, errs: errs}
}

// SeedProperties godoc
// @Summary Upsert the property read model
// @Description Loads listings exported from the catalogue so bookings can reference them.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []service.PropertySeed true "Properties"
// @Success 200 {object} service.SeedResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/properties/seed [post]
func (h *SeedHandler) SeedProperties(c echo.Context) error {
	var seeds []service.PropertySeed
	if err := c.Bind(&seeds); err != nil {
		return badRequest("body must be a JSON array of properties")
	}
	if len(seeds) == 0 || len(seeds) > maxSeedEntries {
		return badRequest("expected between 1 and 5000 properties")
	}

	result, err := h.seeder.Seed(c.Request().Context(), seeds)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
