package handlers

import (
	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/core/services"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AssistantHandler handles the campus and academic assistant endpoints
type AssistantHandler struct {
	assistantService *services.AssistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistantService *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// AskRequest carries an assistant question
type AskRequest struct {
	Query string `json:"query"`
}

// AskCampus answers a campus question
// @Summary Ask the campus assistant
// @Tags Assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AskRequest true "Question"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /assistant/campus [post]
func (h *AssistantHandler) AskCampus(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	reply, err := h.assistantService.AskCampus(c.Context(), middleware.Actor(c), req.Query)
	if err != nil {
		return response.FromError(c, err, "Failed to answer question")
	}
	return response.Success(c, "OK", reply)
}

// AskTeacher answers an academic question, grounded on syllabi when possible
// @Summary Ask the academic assistant
// @Tags Assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AskRequest true "Question"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /assistant/teacher [post]
func (h *AssistantHandler) AskTeacher(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	reply, err := h.assistantService.AskTeacher(c.Context(), middleware.Actor(c), req.Query)
	if err != nil {
		return response.FromError(c, err, "Failed to answer question")
	}
	return response.Success(c, "OK", reply)
}

// FAQs returns the campus FAQ list
// @Summary Campus FAQs
// @Tags Assistant
// @Produce json
// @Success 200 {object} response.Response
// @Router /assistant/faqs [get]
func (h *AssistantHandler) FAQs(c *fiber.Ctx) error {
	return response.Success(c, "FAQs retrieved successfully", h.assistantService.FAQs())
}

// Subjects returns the subjects the academic assistant knows
// @Summary Assistant subjects
// @Tags Assistant
// @Produce json
// @Success 200 {object} response.Response
// @Router /assistant/subjects [get]
func (h *AssistantHandler) Subjects(c *fiber.Ctx) error {
	return response.Success(c, "Subjects retrieved successfully", h.assistantService.Subjects())
}

// History returns the caller's recent exchanges
// @Summary Assistant history
// @Tags Assistant
// @Produce json
// @Security BearerAuth
// @Param assistant query string false "campus or teacher"
// @Param limit query int false "Max entries" default(100)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /assistant/history [get]
func (h *AssistantHandler) History(c *fiber.Ctx) error {
	msgs, err := h.assistantService.History(c.Context(), middleware.Actor(c), c.Query("assistant"), c.QueryInt("limit", 0))
	if err != nil {
		return response.FromError(c, err, "Failed to get history")
	}
	return response.Success(c, "History retrieved successfully", msgs)
}
