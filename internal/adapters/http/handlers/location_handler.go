package handlers

import (
	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/core/services"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LocationHandler handles campus location and QR code endpoints
type LocationHandler struct {
	locationService *services.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService *services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// ResolveQRRequest carries a scanned QR code, either the bare code or the
// printed JSON payload
type ResolveQRRequest struct {
	Code    string `json:"code"`
	Payload string `json:"payload"`
}

// ListLocations lists campus locations
// @Summary List locations
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Param type query string false "Location type"
// @Param building query string false "Building"
// @Param q query string false "Search term"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /locations [get]
func (h *LocationHandler) ListLocations(c *fiber.Ctx) error {
	if term := c.Query("q"); term != "" {
		locations, err := h.locationService.SearchLocations(c.Context(), term)
		if err != nil {
			return response.FromError(c, err, "Failed to search locations")
		}
		return response.Success(c, "Locations retrieved successfully", locations)
	}

	locations, err := h.locationService.ListLocations(c.Context(), domain.LocationType(c.Query("type")), c.Query("building"))
	if err != nil {
		return response.FromError(c, err, "Failed to list locations")
	}
	return response.Success(c, "Locations retrieved successfully", locations)
}

// GetLocation returns one location
// @Summary Get location
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /locations/{id} [get]
func (h *LocationHandler) GetLocation(c *fiber.Ctx) error {
	location, err := h.locationService.GetLocation(c.Context(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err, "Failed to get location")
	}
	return response.Success(c, "Location retrieved successfully", location)
}

// CreateLocation adds a campus location (admin)
// @Summary Create location
// @Tags Locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.LocationInput true "Location"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /locations [post]
func (h *LocationHandler) CreateLocation(c *fiber.Ctx) error {
	var req services.LocationInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	location, err := h.locationService.CreateLocation(c.Context(), middleware.Actor(c), req)
	if err != nil {
		return response.FromError(c, err, "Failed to create location")
	}
	return response.Created(c, "Location created successfully", location)
}

// UpdateLocation replaces a location's fields (admin)
// @Summary Update location
// @Tags Locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Param body body services.LocationInput true "Location"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /locations/{id} [put]
func (h *LocationHandler) UpdateLocation(c *fiber.Ctx) error {
	var req services.LocationInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	location, err := h.locationService.UpdateLocation(c.Context(), middleware.Actor(c), c.Params("id"), req)
	if err != nil {
		return response.FromError(c, err, "Failed to update location")
	}
	return response.Success(c, "Location updated successfully", location)
}

// DeleteLocation removes a location and deactivates its QR codes (admin)
// @Summary Delete location
// @Tags Locations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /locations/{id} [delete]
func (h *LocationHandler) DeleteLocation(c *fiber.Ctx) error {
	if err := h.locationService.DeleteLocation(c.Context(), middleware.Actor(c), c.Params("id")); err != nil {
		return response.FromError(c, err, "Failed to delete location")
	}
	return response.Success(c, "Location deleted successfully", nil)
}

// GenerateQRCode issues a new QR code for a location (admin)
// @Summary Generate QR code
// @Tags QR
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /locations/{id}/qr [post]
func (h *LocationHandler) GenerateQRCode(c *fiber.Ctx) error {
	qr, err := h.locationService.GenerateQRCode(c.Context(), middleware.Actor(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err, "Failed to generate QR code")
	}
	return response.Created(c, "QR code generated successfully", qr)
}

// ListQRCodes lists the codes issued for a location (admin)
// @Summary List QR codes of a location
// @Tags QR
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID"
// @Success 200 {object} response.Response
// @Router /locations/{id}/qr [get]
func (h *LocationHandler) ListQRCodes(c *fiber.Ctx) error {
	codes, err := h.locationService.ListQRCodes(c.Context(), middleware.Actor(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err, "Failed to list QR codes")
	}
	return response.Success(c, "QR codes retrieved successfully", codes)
}

// ResolveQR maps a scanned code or payload to its location
// @Summary Resolve QR code
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ResolveQRRequest true "Scanned code or payload"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /qr/resolve [post]
func (h *LocationHandler) ResolveQR(c *fiber.Ctx) error {
	var req ResolveQRRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var err error
	var location any
	if req.Payload != "" {
		location, err = h.locationService.ResolveQRPayload(c.Context(), req.Payload)
	} else {
		location, err = h.locationService.ResolveQRCode(c.Context(), req.Code)
	}
	if err != nil {
		return response.FromError(c, err, "Failed to resolve QR code")
	}
	return response.Success(c, "Location resolved successfully", location)
}

// SetQRCodeActive activates or deactivates a QR code (admin)
// @Summary Activate or deactivate QR code
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "QR code ID"
// @Param body body ActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /qr/{id}/active [patch]
func (h *LocationHandler) SetQRCodeActive(c *fiber.Ctx) error {
	var req ActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.locationService.SetQRCodeActive(c.Context(), middleware.Actor(c), c.Params("id"), req.Active); err != nil {
		return response.FromError(c, err, "Failed to update QR code")
	}
	return response.Success(c, "QR code updated successfully", nil)
}
