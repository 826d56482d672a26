package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/core/services"
	"campus-aid-buddy/internal/pkg/pagination"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const streamHeartbeat = 20 * time.Second

// TicketHandler handles ticket endpoints
type TicketHandler struct {
	ticketService *services.TicketService
	log           zerolog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketService *services.TicketService, l zerolog.Logger) *TicketHandler {
	return &TicketHandler{ticketService: ticketService, log: l}
}

// UpdateStatusRequest represents a status change request body
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
	Notes  string              `json:"notes"`
}

func ticketResponses(tickets []*models.Ticket) []*models.TicketResponse {
	out := make([]*models.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ToResponse())
	}
	return out
}

// withActions renders t for actor, including the transitions actor may make
func withActions(actor *domain.Actor, t *models.Ticket) *models.TicketResponse {
	res := t.ToResponse()
	res.AvailableActions = services.AvailableActions(actor, t)
	return res
}

// CreateTicket files a new ticket
// @Summary Create ticket
// @Description File a ticket. It is routed to a department and prioritised automatically.
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateTicketInput true "Ticket"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /tickets [post]
func (h *TicketHandler) CreateTicket(c *fiber.Ctx) error {
	var req services.CreateTicketInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor := middleware.Actor(c)
	ticket, err := h.ticketService.CreateTicket(c.Context(), actor, req)
	if err != nil {
		return response.FromError(c, err, "Failed to create ticket")
	}

	return response.Created(c, "Ticket submitted successfully", withActions(actor, ticket))
}

// MyTickets lists the caller's own tickets
// @Summary My tickets
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /tickets/mine [get]
func (h *TicketHandler) MyTickets(c *fiber.Ctx) error {
	tickets, err := h.ticketService.GetUserTickets(c.Context(), middleware.Actor(c).ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get tickets")
	}
	return response.Success(c, "Tickets retrieved successfully", ticketResponses(tickets))
}

// ListTickets lists every ticket with optional filters (admin, hod)
// @Summary List tickets
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Param category query string false "Category"
// @Param department query string false "Submitter department"
// @Param routed_department query string false "Routed department"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /tickets [get]
func (h *TicketHandler) ListTickets(c *fiber.Ctx) error {
	p := pagination.GetParams(c)
	filter := repositories.TicketFilter{
		Status:           domain.TicketStatus(c.Query("status")),
		Category:         domain.TicketCategory(c.Query("category")),
		Department:       c.Query("department"),
		RoutedDepartment: domain.Department(c.Query("routed_department")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return response.BadRequest(c, "Invalid status")
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return response.BadRequest(c, "Invalid category")
	}

	tickets, total, err := h.ticketService.ListTickets(c.Context(), filter, p.Offset, p.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list tickets")
	}

	return response.Success(c, "Tickets retrieved successfully", pagination.NewResponse(ticketResponses(tickets), p, total))
}

// RoleQueue lists the tickets the caller's role handles
// @Summary Role ticket queue
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Success 200 {object} response.Response
// @Router /tickets/queue [get]
func (h *TicketHandler) RoleQueue(c *fiber.Ctx) error {
	status := domain.TicketStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.BadRequest(c, "Invalid status")
	}

	actor := middleware.Actor(c)
	tickets, err := h.ticketService.ListForRole(c.Context(), actor, status)
	if err != nil {
		return response.FromError(c, err, "Failed to get ticket queue")
	}

	out := make([]*models.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, withActions(actor, t))
	}
	return response.Success(c, "Tickets retrieved successfully", out)
}

// GetTicket returns one ticket with its activity log
// @Summary Get ticket
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetTicket(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	ticket, err := h.ticketService.GetTicketForActor(c.Context(), c.Params("id"), actor)
	if err != nil {
		return response.FromError(c, err, "Failed to get ticket")
	}
	return response.Success(c, "Ticket retrieved successfully", withActions(actor, ticket))
}

// AvailableActions lists the statuses the caller may move a ticket to
// @Summary Available ticket actions
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} response.Response
// @Router /tickets/{id}/actions [get]
func (h *TicketHandler) AvailableActions(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	ticket, err := h.ticketService.GetTicketForActor(c.Context(), c.Params("id"), actor)
	if err != nil {
		return response.FromError(c, err, "Failed to get ticket")
	}
	return response.Success(c, "Actions retrieved successfully", fiber.Map{
		"status":  ticket.Status,
		"actions": services.AvailableActions(actor, ticket),
	})
}

// UpdateStatus moves a ticket to a new status
// @Summary Update ticket status
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param body body UpdateStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tickets/{id}/status [patch]
func (h *TicketHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !req.Status.Valid() {
		return response.BadRequest(c, "Invalid status")
	}

	actor := middleware.Actor(c)
	ticket, err := h.ticketService.UpdateTicketStatus(c.Context(), c.Params("id"), actor, req.Status, req.Notes)
	if err != nil {
		return response.FromError(c, err, "Failed to update ticket")
	}
	return response.Success(c, "Ticket updated successfully", withActions(actor, ticket))
}

// AssignTicket records the staff member handling a ticket
// @Summary Assign ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param body body services.AssignTicketInput true "Assignee"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /tickets/{id}/assign [patch]
func (h *TicketHandler) AssignTicket(c *fiber.Ctx) error {
	var req services.AssignTicketInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor := middleware.Actor(c)
	ticket, err := h.ticketService.AssignTicket(c.Context(), c.Params("id"), actor, req)
	if err != nil {
		return response.FromError(c, err, "Failed to assign ticket")
	}
	return response.Success(c, "Ticket assigned successfully", withActions(actor, ticket))
}

// PreviewRoute shows where a ticket would be routed
// @Summary Preview ticket routing
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param category query string true "Category"
// @Param issue_type query string false "Issue type"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /tickets/route-preview [get]
func (h *TicketHandler) PreviewRoute(c *fiber.Ctx) error {
	preview, err := h.ticketService.PreviewRoute(
		domain.TicketCategory(c.Query("category")),
		c.Query("issue_type"),
		middleware.Actor(c).Department,
	)
	if err != nil {
		return response.FromError(c, err, "Failed to preview route")
	}
	return response.Success(c, "Route preview", preview)
}

// SearchTickets runs a full-text search over tickets the caller may view
// @Summary Search tickets
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Param status query string false "Status"
// @Param category query string false "Category"
// @Param limit query int false "Max results" default(20)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /tickets/search [get]
func (h *TicketHandler) SearchTickets(c *fiber.Ctx) error {
	tickets, err := h.ticketService.SearchTickets(c.Context(), middleware.Actor(c), services.TicketSearchQuery{
		Text:     c.Query("q"),
		Status:   domain.TicketStatus(c.Query("status")),
		Category: domain.TicketCategory(c.Query("category")),
		Limit:    c.QueryInt("limit", 0),
	})
	if err != nil {
		if errors.Is(err, services.ErrSearchUnavailable) {
			return response.Error(c, fiber.StatusServiceUnavailable, "Ticket search is not enabled")
		}
		return response.FromError(c, err, "Failed to search tickets")
	}
	return response.Success(c, "Tickets retrieved successfully", ticketResponses(tickets))
}

// Stream pushes ticket snapshots the caller may view as server-sent events
// @Summary Live ticket feed
// @Tags Tickets
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Router /tickets/stream [get]
func (h *TicketHandler) Stream(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	feed := h.ticketService.Feed()
	sub := feed.Subscribe(services.ViewerOf(actor))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := h.log.With().Str("user_id", actor.ID).Logger()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer feed.Unsubscribe(sub)
		log.Debug().Msg("ticket stream opened")

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		if err := writeComment(w, "connected"); err != nil {
			return
		}
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					log.Debug().Err(err).Msg("ticket stream closed")
					return
				}
			case <-heartbeat.C:
				if err := writeComment(w, "ping"); err != nil {
					log.Debug().Err(err).Msg("ticket stream closed")
					return
				}
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, ev services.TicketEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	return w.Flush()
}
