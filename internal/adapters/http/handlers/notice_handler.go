package handlers

import (
	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/core/services"
	"campus-aid-buddy/internal/pkg/pagination"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NoticeHandler handles notice board endpoints
type NoticeHandler struct {
	noticeService *services.NoticeService
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(noticeService *services.NoticeService) *NoticeHandler {
	return &NoticeHandler{noticeService: noticeService}
}

// ActiveRequest toggles a notice, lecture or QR code on or off
type ActiveRequest struct {
	Active bool `json:"active"`
}

// ListNotices lists active notices addressed to the caller's role
// @Summary List notices
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /notices [get]
func (h *NoticeHandler) ListNotices(c *fiber.Ctx) error {
	notices, err := h.noticeService.ListForActor(c.Context(), middleware.Actor(c))
	if err != nil {
		return response.FromError(c, err, "Failed to list notices")
	}
	return response.Success(c, "Notices retrieved successfully", notices)
}

// ListAllNotices pages through every notice, inactive ones included (admin)
// @Summary List all notices
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /notices/all [get]
func (h *NoticeHandler) ListAllNotices(c *fiber.Ctx) error {
	p := pagination.GetParams(c)
	notices, total, err := h.noticeService.ListAll(c.Context(), p.Offset, p.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notices")
	}
	return response.Success(c, "Notices retrieved successfully", pagination.NewResponse(notices, p, total))
}

// GetNotice returns one notice
// @Summary Get notice
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notices/{id} [get]
func (h *NoticeHandler) GetNotice(c *fiber.Ctx) error {
	notice, err := h.noticeService.GetNotice(c.Context(), middleware.Actor(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err, "Failed to get notice")
	}
	return response.Success(c, "Notice retrieved successfully", notice)
}

// CreateNotice publishes a notice
// @Summary Create notice
// @Tags Notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.NoticeInput true "Notice"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /notices [post]
func (h *NoticeHandler) CreateNotice(c *fiber.Ctx) error {
	var req services.NoticeInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	notice, err := h.noticeService.CreateNotice(c.Context(), middleware.Actor(c), req)
	if err != nil {
		return response.FromError(c, err, "Failed to create notice")
	}
	return response.Created(c, "Notice published successfully", notice)
}

// UpdateNotice replaces a notice's content
// @Summary Update notice
// @Tags Notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Param body body services.NoticeInput true "Notice"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /notices/{id} [put]
func (h *NoticeHandler) UpdateNotice(c *fiber.Ctx) error {
	var req services.NoticeInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	notice, err := h.noticeService.UpdateNotice(c.Context(), middleware.Actor(c), c.Params("id"), req)
	if err != nil {
		return response.FromError(c, err, "Failed to update notice")
	}
	return response.Success(c, "Notice updated successfully", notice)
}

// SetActive activates or deactivates a notice
// @Summary Activate or deactivate notice
// @Tags Notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Param body body ActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /notices/{id}/active [patch]
func (h *NoticeHandler) SetActive(c *fiber.Ctx) error {
	var req ActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	notice, err := h.noticeService.SetActive(c.Context(), middleware.Actor(c), c.Params("id"), req.Active)
	if err != nil {
		return response.FromError(c, err, "Failed to update notice")
	}
	return response.Success(c, "Notice updated successfully", notice)
}

// DeleteNotice removes a notice
// @Summary Delete notice
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notices/{id} [delete]
func (h *NoticeHandler) DeleteNotice(c *fiber.Ctx) error {
	if err := h.noticeService.DeleteNotice(c.Context(), middleware.Actor(c), c.Params("id")); err != nil {
		return response.FromError(c, err, "Failed to delete notice")
	}
	return response.Success(c, "Notice deleted successfully", nil)
}
