package handlers

import (
	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/core/services"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SyllabusHandler handles syllabus endpoints
type SyllabusHandler struct {
	syllabusService *services.SyllabusService
}

// NewSyllabusHandler creates a new syllabus handler
func NewSyllabusHandler(syllabusService *services.SyllabusService) *SyllabusHandler {
	return &SyllabusHandler{syllabusService: syllabusService}
}

// UploadSyllabus stores a syllabus file. Plain-text files are also kept as
// searchable content for the academic assistant.
// @Summary Upload syllabus
// @Tags Syllabus
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Syllabus file"
// @Param title formData string true "Title"
// @Param department formData string true "Department"
// @Param subject formData string true "Subject"
// @Param course formData string false "Course"
// @Param semester formData string false "Semester"
// @Param content formData string false "Extracted text"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /syllabus [post]
func (h *SyllabusHandler) UploadSyllabus(c *fiber.Ctx) error {
	input := services.SyllabusInput{
		Title:      c.FormValue("title"),
		Department: c.FormValue("department"),
		Course:     c.FormValue("course"),
		Semester:   c.FormValue("semester"),
		Subject:    c.FormValue("subject"),
		Content:    c.FormValue("content"),
	}
	file, closer, err := formUpload(c, "file")
	if err != nil {
		return response.BadRequest(c, "Syllabus file is required")
	}
	defer closer.Close()

	syl, err := h.syllabusService.UploadSyllabus(c.Context(), middleware.Actor(c), input, file)
	if err != nil {
		return response.FromError(c, err, "Failed to upload syllabus")
	}
	return response.Created(c, "Syllabus uploaded successfully", syl)
}

// ListSyllabi lists syllabi of a department
// @Summary List syllabi
// @Tags Syllabus
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department, defaults to the caller's"
// @Param subject query string false "Subject"
// @Success 200 {object} response.Response
// @Router /syllabus [get]
func (h *SyllabusHandler) ListSyllabi(c *fiber.Ctx) error {
	items, err := h.syllabusService.ListByDepartment(c.Context(), middleware.Actor(c), c.Query("department"), c.Query("subject"))
	if err != nil {
		return response.FromError(c, err, "Failed to list syllabi")
	}
	return response.Success(c, "Syllabi retrieved successfully", items)
}

// GetSyllabus returns one syllabus
// @Summary Get syllabus
// @Tags Syllabus
// @Produce json
// @Security BearerAuth
// @Param id path string true "Syllabus ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /syllabus/{id} [get]
func (h *SyllabusHandler) GetSyllabus(c *fiber.Ctx) error {
	syl, err := h.syllabusService.GetSyllabus(c.Context(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err, "Failed to get syllabus")
	}
	return response.Success(c, "Syllabus retrieved successfully", syl)
}

// UpdateSyllabus rewrites syllabus metadata
// @Summary Update syllabus
// @Tags Syllabus
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Syllabus ID"
// @Param body body services.SyllabusInput true "Syllabus metadata"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /syllabus/{id} [put]
func (h *SyllabusHandler) UpdateSyllabus(c *fiber.Ctx) error {
	var req services.SyllabusInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	syl, err := h.syllabusService.UpdateSyllabus(c.Context(), middleware.Actor(c), c.Params("id"), req)
	if err != nil {
		return response.FromError(c, err, "Failed to update syllabus")
	}
	return response.Success(c, "Syllabus updated successfully", syl)
}

// DeleteSyllabus removes a syllabus and its file
// @Summary Delete syllabus
// @Tags Syllabus
// @Produce json
// @Security BearerAuth
// @Param id path string true "Syllabus ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /syllabus/{id} [delete]
func (h *SyllabusHandler) DeleteSyllabus(c *fiber.Ctx) error {
	if err := h.syllabusService.DeleteSyllabus(c.Context(), middleware.Actor(c), c.Params("id")); err != nil {
		return response.FromError(c, err, "Failed to delete syllabus")
	}
	return response.Success(c, "Syllabus deleted successfully", nil)
}
