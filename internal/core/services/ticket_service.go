package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/core/routing"
	"campus-aid-buddy/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxTicketNumberAttempts bounds ticket number generation
const maxTicketNumberAttempts = 10

// TicketService owns the ticket lifecycle: creation, status transitions and
// the append-only activity log.
type TicketService struct {
	repo     repositories.TicketRepository
	feed     *TicketFeed
	searcher TicketSearcher
	log      zerolog.Logger
	now      Clock
	rand     Random
}

// TicketOption configures a TicketService
type TicketOption func(*TicketService)

// WithClock overrides the time source
func WithClock(c Clock) TicketOption {
	return func(s *TicketService) { s.now = c }
}

// WithRandom overrides the ticket number suffix source
func WithRandom(r Random) TicketOption {
	return func(s *TicketService) { s.rand = r }
}

// WithSearcher enables full-text search
func WithSearcher(searcher TicketSearcher) TicketOption {
	return func(s *TicketService) { s.searcher = searcher }
}

// NewTicketService creates a new ticket service
func NewTicketService(repo repositories.TicketRepository, feed *TicketFeed, l zerolog.Logger, opts ...TicketOption) *TicketService {
	s := &TicketService{
		repo: repo,
		feed: feed,
		log:  l,
		now:  systemClock,
		rand: newRandom(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTicketInput is the submitter-supplied part of a new ticket
type CreateTicketInput struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	IssueType   string                `json:"issue_type"`
	Department  string                `json:"department"`
	Priority    domain.Priority       `json:"priority"`
	Location    *domain.GeoPoint      `json:"location"`
	Attachments []string              `json:"attachments"`
}

func (in *CreateTicketInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Title == "":
		return domain.Validationf("title is required")
	case in.Description == "":
		return domain.Validationf("description is required")
	case in.Category == "":
		return domain.Validationf("category is required")
	case !in.Category.Valid():
		return domain.Validationf("unknown category %q", in.Category)
	case in.Priority != "" && !in.Priority.Valid():
		return domain.Validationf("unknown priority %q", in.Priority)
	}
	return nil
}

// CreateTicket files a new pending ticket for submitter
func (s *TicketService) CreateTicket(ctx context.Context, submitter *domain.Actor, input CreateTicketInput) (*models.Ticket, error) {
	if err := actorRequired(submitter); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	routed := routing.RouteTicket(input.Category, input.IssueType)
	rule := routing.RuleForUser(input.Category, submitter.Department)

	department := firstNonEmpty(
		strings.TrimSpace(input.Department),
		strings.TrimSpace(submitter.Department),
		rule.Department,
		string(routed),
	)
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	var lastErr error
	for attempt := 0; attempt < maxTicketNumberAttempts; attempt++ {
		now := s.now()
		number := s.ticketNumber(now)

		taken, err := s.repo.NumberExists(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("check ticket number: %w", err)
		}
		if taken {
			metrics.TicketNumberCollisions.Inc()
			continue
		}

		ticket := &models.Ticket{
			ID:                  uuid.NewString(),
			TicketNumber:        number,
			Title:               input.Title,
			Description:         input.Description,
			Category:            input.Category,
			IssueType:           input.IssueType,
			Status:              domain.StatusPending,
			Priority:            priority,
			Department:          department,
			RoutedDepartment:    routed,
			SubmitterID:         submitter.ID,
			SubmitterName:       submitter.Name,
			SubmitterEmail:      submitter.Email,
			SubmitterRollNumber: submitter.RollNumber,
			AssignedRole:        rule.AssignedRole,
			Attachments:         input.Attachments,
			CreatedAt:           now,
			UpdatedAt:           now,
			Activities: []models.TicketActivity{{
				Action:          "Ticket created",
				PerformedBy:     submitter.ID,
				PerformedByRole: submitter.Role,
				Timestamp:       now,
			}},
		}
		ticket.SetLocation(input.Location)

		err = s.repo.Create(ctx, ticket)
		if errors.Is(err, domain.ErrDuplicateEntry) {
			// lost a race for the number
			metrics.TicketNumberCollisions.Inc()
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}

		metrics.TicketsCreated.WithLabelValues(string(ticket.Category)).Inc()
		s.log.Info().
			Str("ticket", ticket.TicketNumber).
			Str("category", string(ticket.Category)).
			Str("routed_department", string(ticket.RoutedDepartment)).
			Str("submitter", submitter.ID).
			Msg("ticket created")

		s.feed.Publish(TicketEventCreated, ticket)
		return ticket, nil
	}

	s.log.Error().Err(lastErr).Int("attempts", maxTicketNumberAttempts).Msg("ticket number space exhausted")
	return nil, domain.ErrTicketNumberExhausted
}

// ticketNumber renders TKT + YY + MM + 4-digit random suffix
func (s *TicketService) ticketNumber(now time.Time) string {
	return fmt.Sprintf("TKT%s%04d", now.Format("0601"), s.rand.Intn(10000))
}

// UpdateTicketStatus moves a ticket to newStatus on behalf of actor. The
// actor must be able to handle the ticket's routed department and the
// transition must be one of routing.AvailableActions.
func (s *TicketService) UpdateTicketStatus(ctx context.Context, ticketID string, actor *domain.Actor, newStatus domain.TicketStatus, notes string) (*models.Ticket, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, domain.Validationf("unknown status %q", newStatus)
	}
	notes = strings.TrimSpace(notes)

	ticket, err := s.repo.Mutate(ctx, ticketID, func(t *models.Ticket) (*repositories.TicketChange, error) {
		if !routing.CanUserHandleTicket(actor.Role, t.RoutedDepartment) ||
			!routing.CanTransition(actor.Role, t.Status, newStatus) {
			return nil, domain.ErrPermissionDenied
		}

		now := s.now()
		action := fmt.Sprintf("Status changed to %s", newStatus)
		if notes != "" {
			action += ": " + notes
		}

		updates := map[string]interface{}{
			"status":     newStatus,
			"updated_at": now,
		}
		if newStatus == domain.StatusResolved && t.ResolvedAt == nil {
			updates["resolved_at"] = now
		}

		return &repositories.TicketChange{
			Updates: updates,
			Activity: &models.TicketActivity{
				Action:          action,
				PerformedBy:     actor.ID,
				PerformedByRole: actor.Role,
				Notes:           notes,
				Timestamp:       now,
			},
		}, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			metrics.PermissionDenied.Inc()
			s.log.Warn().
				Str("ticket_id", ticketID).
				Str("actor", actor.ID).
				Str("role", string(actor.Role)).
				Str("status", string(newStatus)).
				Msg("ticket transition denied")
		}
		return nil, err
	}

	metrics.TicketTransitions.WithLabelValues(string(newStatus)).Inc()
	s.log.Info().
		Str("ticket", ticket.TicketNumber).
		Str("status", string(newStatus)).
		Str("actor", actor.ID).
		Msg("ticket status changed")

	s.feed.Publish(TicketEventUpdated, ticket)
	return ticket, nil
}

// AssignTicketInput names the staff member taking a ticket
type AssignTicketInput struct {
	AssigneeID   string      `json:"assignee_id"`
	AssignedRole domain.Role `json:"assigned_role"`
}

// AssignTicket records an assignee. Only admin, hod and department staff
// may assign.
func (s *TicketService) AssignTicket(ctx context.Context, ticketID string, actor *domain.Actor, input AssignTicketInput) (*models.Ticket, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleHOD, domain.RoleDepartmentStaff:
	default:
		return nil, domain.ErrPermissionDenied
	}
	if input.AssigneeID == "" {
		return nil, domain.Validationf("assignee_id is required")
	}
	if !input.AssignedRole.IsStaff() {
		return nil, domain.Validationf("assigned_role must be a staff role")
	}

	ticket, err := s.repo.Mutate(ctx, ticketID, func(t *models.Ticket) (*repositories.TicketChange, error) {
		if !routing.CanUserHandleTicket(actor.Role, t.RoutedDepartment) {
			return nil, domain.ErrPermissionDenied
		}
		now := s.now()
		return &repositories.TicketChange{
			Updates: map[string]interface{}{
				"assignee_id":   input.AssigneeID,
				"assigned_role": input.AssignedRole,
				"updated_at":    now,
			},
			Activity: &models.TicketActivity{
				Action:          fmt.Sprintf("Assigned to %s", input.AssignedRole),
				PerformedBy:     actor.ID,
				PerformedByRole: actor.Role,
				Timestamp:       now,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(TicketEventUpdated, ticket)
	return ticket, nil
}

// GetUserTickets returns the tickets userID submitted, newest first
func (s *TicketService) GetUserTickets(ctx context.Context, userID string) ([]*models.Ticket, error) {
	return s.repo.ListBySubmitter(ctx, userID)
}

// GetTicketByID returns a ticket with its ordered activity log
func (s *TicketService) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	return s.repo.GetByID(ctx, id)
}

// GetTicketForActor is GetTicketByID restricted to tickets actor may view
func (s *TicketService) GetTicketForActor(ctx context.Context, id string, actor *domain.Actor) (*models.Ticket, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !routing.CanViewTicket(ViewerOf(actor), t.Viewable()) {
		return nil, domain.ErrPermissionDenied
	}
	return t, nil
}

// ListTickets returns one page of tickets matching filter
func (s *TicketService) ListTickets(ctx context.Context, filter repositories.TicketFilter, offset, limit int) ([]*models.Ticket, int64, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

// ListForRole returns every ticket actor's role may view, newest first
func (s *TicketService) ListForRole(ctx context.Context, actor *domain.Actor, status domain.TicketStatus) ([]*models.Ticket, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}

	filter := repositories.TicketFilter{Status: status}
	switch actor.Role {
	case domain.RoleStudent, domain.RoleLabAssistant, domain.RoleSupportingStaff:
		filter.SubmitterID = actor.ID
	case domain.RoleTutor, domain.RoleTeachingStaff:
		filter.Category = domain.CategoryAcademicQuery
	case domain.RoleHostelWarden:
		filter.Category = domain.CategoryHostelIssue
	case domain.RoleMaintenance:
		filter.Categories = []domain.TicketCategory{domain.CategoryFacilityIssue, domain.CategoryMaintenance}
	case domain.RoleSecurityStaff:
		filter.Category = domain.CategorySecurityIssue
	case domain.RoleTransportOfficer:
		filter.Category = domain.CategoryTransportIssue
	case domain.RoleDepartmentStaff:
		filter.Department = actor.Department
	case domain.RoleAdmin, domain.RoleHOD:
	}

	tickets, _, err := s.repo.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}

	viewer := ViewerOf(actor)
	visible := tickets[:0]
	for _, t := range tickets {
		if routing.CanViewTicket(viewer, t.Viewable()) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// SearchTickets runs a full-text search and returns the hits actor may view
func (s *TicketService) SearchTickets(ctx context.Context, actor *domain.Actor, q TicketSearchQuery) ([]*models.Ticket, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, domain.Validationf("search text is required")
	}

	ids, err := s.searcher.SearchTickets(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search tickets: %w", err)
	}

	viewer := ViewerOf(actor)
	out := make([]*models.Ticket, 0, len(ids))
	for _, id := range ids {
		t, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			// index lags the database
			continue
		}
		if err != nil {
			return nil, err
		}
		if routing.CanViewTicket(viewer, t.Viewable()) {
			out = append(out, t)
		}
	}
	return out, nil
}

// RoutePreview is what CreateTicket would decide for a category and issue
type RoutePreview struct {
	Department               domain.Department `json:"department"`
	AssignableRoles          []domain.Role     `json:"assignable_roles"`
	Rule                     routing.Rule      `json:"rule"`
	SuggestedPriority        domain.Priority   `json:"suggested_priority"`
	EstimatedResolutionHours float64           `json:"estimated_resolution_hours"`
}

// PreviewRoute explains how a ticket would be routed without creating it
func (s *TicketService) PreviewRoute(category domain.TicketCategory, issueType, userDepartment string) (*RoutePreview, error) {
	if !category.Valid() {
		return nil, domain.Validationf("unknown category %q", category)
	}
	dept := routing.RouteTicket(category, issueType)
	priority := routing.PriorityLevel(routing.CategoryTag(category), issueType)
	return &RoutePreview{
		Department:               dept,
		AssignableRoles:          routing.AssignableRoles(dept),
		Rule:                     routing.RuleForUser(category, userDepartment),
		SuggestedPriority:        priority,
		EstimatedResolutionHours: routing.EstimatedResolutionHours(dept, priority),
	}, nil
}

// AvailableActions lists the statuses actor may move t to
func AvailableActions(actor *domain.Actor, t *models.Ticket) []domain.TicketStatus {
	if actor == nil || !routing.CanUserHandleTicket(actor.Role, t.RoutedDepartment) {
		return []domain.TicketStatus{}
	}
	return routing.AvailableActions(actor.Role, t.Status)
}

// ViewerOf adapts an actor to the visibility rules
func ViewerOf(a *domain.Actor) routing.Viewer {
	return routing.Viewer{ID: a.ID, Role: a.Role, Department: a.Department}
}

// Feed exposes the live ticket feed
func (s *TicketService) Feed() *TicketFeed {
	return s.feed
}
